package archive

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"chatexport/internal/attach"
	"chatexport/internal/config"
	"chatexport/internal/content"
	"chatexport/internal/transcript"

	"github.com/google/uuid"
	"github.com/phuslu/log"
)

// Progress receives walk progress, one step per export file.
type Progress interface {
	Start(total int)
	Advance(source string)
	Stop()
}

type nopProgress struct{}

func (nopProgress) Start(int)      {}
func (nopProgress) Advance(string) {}
func (nopProgress) Stop()          {}

// Failure is a file or record that could not be exported. Record is -1 for
// file-level failures. Partial failures still produced a document.
type Failure struct {
	Source  string
	Record  int
	Title   string
	Partial bool
	Err     error
}

// Report summarizes a walk.
type Report struct {
	RunID         string
	Files         int
	Conversations int
	Documents     int
	Attachments   map[attach.Kind]int
	Failures      []Failure
	Duration      time.Duration
}

// Walker exports every conversation under an export directory.
type Walker struct {
	Dir      string
	RunID    string
	Logger   *log.Logger
	Progress Progress

	layout      attach.Layout
	pool        *attach.Pool
	resolver    *attach.Resolver
	transformer *transcript.Transformer
}

// NewWalker scans dir for attachments and prepares a walk writing into
// layout. An unreadable export directory is fatal.
func NewWalker(dir string, cfg config.Config, layout attach.Layout, logger *log.Logger) (*Walker, error) {
	pool, err := attach.NewPool(dir)
	if err != nil {
		return nil, err
	}
	resolver := attach.NewResolver(layout)
	extractor := content.NewExtractor(pool, resolver, logger)

	return &Walker{
		Dir:         dir,
		Logger:      logger,
		layout:      layout,
		pool:        pool,
		resolver:    resolver,
		transformer: transcript.New(cfg, layout, extractor, logger),
	}, nil
}

// Transformer returns the transformer the walk renders with.
func (w *Walker) Transformer() *transcript.Transformer {
	return w.transformer
}

// Run creates the output tree and exports every record of every export file.
// Failures of single files and records are collected in the Report and do
// not stop the walk; the returned error is reserved for conditions that
// prevent any export.
func (w *Walker) Run() (Report, error) {
	start := time.Now()
	if w.RunID == "" {
		w.RunID = uuid.NewString()
	}
	report := Report{RunID: w.RunID}

	if err := w.layout.EnsureDirs(); err != nil {
		return report, err
	}
	files, err := Files(w.Dir)
	if err != nil {
		return report, err
	}
	report.Files = len(files)

	if len(files) == 0 {
		w.Logger.Warn().Str("dir", w.Dir).Msg("no JSON files found")
	} else {
		w.Logger.Info().
			Str("dir", w.Dir).
			Int("files", len(files)).
			Int("pool", w.pool.Len()).
			Msg("processing conversations")
	}

	progress := w.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	progress.Start(len(files))
	for _, path := range files {
		w.walkFile(path, &report)
		progress.Advance(filepath.Base(path))
	}
	progress.Stop()

	report.Attachments = map[attach.Kind]int{
		attach.KindImage: w.resolver.Copied(attach.KindImage),
		attach.KindFile:  w.resolver.Copied(attach.KindFile),
	}
	report.Duration = time.Since(start)

	w.Logger.Info().
		Str("out", w.layout.Documents).
		Int("documents", report.Documents).
		Int("failures", len(report.Failures)).
		Dur("duration", report.Duration).
		Msg("export completed")
	return report, nil
}

func (w *Walker) walkFile(path string, report *Report) {
	records, err := ReadFile(path)
	if err != nil {
		w.fail(report, Failure{Source: path, Record: -1, Err: err})
		return
	}

	for _, rec := range records {
		report.Conversations++
		if rec.Err != nil {
			w.fail(report, Failure{Source: path, Record: rec.Index, Err: rec.Err})
			continue
		}

		res, err := w.transformer.Transform(rec.Conversation)
		switch {
		case err == nil:
			report.Documents++
		case errors.Is(err, transcript.ErrPartial):
			report.Documents++
			w.fail(report, Failure{Source: path, Record: rec.Index, Title: res.Title, Partial: true, Err: err})
		default:
			w.fail(report, Failure{
				Source: path,
				Record: rec.Index,
				Title:  rec.Conversation.Title,
				Err:    fmt.Errorf("transform conversation: %w", err),
			})
		}
	}
}

func (w *Walker) fail(report *Report, f Failure) {
	report.Failures = append(report.Failures, f)

	entry := w.Logger.Error()
	if f.Partial {
		entry = w.Logger.Warn()
	}
	entry.Err(f.Err).
		Str("source", f.Source).
		Int("record", f.Record).
		Str("title", f.Title).
		Bool("partial", f.Partial).
		Msg("conversation export failed")
}
