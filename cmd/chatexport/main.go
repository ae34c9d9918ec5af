// Package main provides the chatexport CLI for turning ChatGPT data exports
// into Markdown transcripts.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"chatexport/internal/archive"
	"chatexport/internal/attach"
	"chatexport/internal/config"
	"chatexport/internal/format"
	"chatexport/internal/logging"
	"chatexport/internal/progress"
	"chatexport/internal/transcript"
	"chatexport/internal/view"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatexport",
		Short:         "Convert ChatGPT data exports into Markdown transcripts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newConvertCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newViewCmd())
	root.AddCommand(newInfoCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chatexport: %v\n", err)
		os.Exit(1)
	}
}

func newConvertCmd() *cobra.Command {
	var (
		exportDir  string
		configPath string
		outDir     string
		logLevel   string
		logJSON    bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Write every conversation of an export as a Markdown document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			errOut := cmd.ErrOrStderr()
			logger := logging.New(logging.Options{
				Level:  logLevel,
				JSON:   logJSON,
				Writer: errOut,
				RunID:  runID,
			})

			layout := attach.NewLayout(outDir)
			walker, err := archive.NewWalker(exportDir, cfg, layout, logger)
			if err != nil {
				return err
			}
			walker.RunID = runID
			if f, ok := errOut.(*os.File); ok && !noProgress && progress.Enabled(f) {
				walker.Progress = progress.New(f)
			}

			report, err := walker.Run()
			if err != nil {
				return err
			}
			return format.WriteReport(cmd.OutOrStdout(), report, layout.Documents)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&exportDir, "export-dir", "e", "export", "directory holding the unpacked ChatGPT export")
	flags.StringVarP(&configPath, "config", "c", "config.json", "configuration file (.json, .toml, .yaml)")
	flags.StringVarP(&outDir, "out", "o", "ChatGPT", "output root for documents and attachments")
	flags.StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, or error")
	flags.BoolVar(&logJSON, "log-json", false, "write JSON log lines even on a terminal")
	flags.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

func newListCmd() *cobra.Command {
	var (
		afterStr   string
		beforeStr  string
		limit      int
		formatFlag string
		noHeader   bool
		titleWidth int
	)

	cmd := &cobra.Command{
		Use:   "list <export-dir>",
		Short: "List the conversations of an export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			after, err := parseTimeFlag("--after", afterStr)
			if err != nil {
				return err
			}
			before, err := parseTimeFlag("--before", beforeStr)
			if err != nil {
				return err
			}

			result, err := archive.List(archive.ListOptions{
				Dir:      args[0],
				After:    after,
				Before:   before,
				Limit:    limit,
				MaxTitle: titleWidth,
			})
			if err != nil {
				return err
			}

			errs := cmd.ErrOrStderr()
			for _, warn := range result.Warnings {
				fmt.Fprintf(errs, "warning: %v\n", warn) //nolint:errcheck
			}

			return format.WriteSummaries(cmd.OutOrStdout(), result.Summaries, !noHeader, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&afterStr, "after", "", "include conversations created on/after the given RFC3339 timestamp")
	flags.StringVar(&beforeStr, "before", "", "include conversations created on/before the given RFC3339 timestamp")
	flags.IntVar(&limit, "limit", 0, "limit number of conversations returned (0 means no limit)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table, plain, json, or jsonl")
	flags.BoolVar(&noHeader, "no-header", false, "omit header row")
	flags.IntVar(&titleWidth, "title-width", 160, "maximum characters included in the title column")

	return cmd
}

func parseTimeFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", name, err)
	}
	return &t, nil
}

func newViewCmd() *cobra.Command {
	var (
		configPath   string
		formatFlag   string
		wrap         int
		forceColor   bool
		forceNoColor bool
		noPager      bool
	)

	cmd := &cobra.Command{
		Use:   "view <export-dir> <index-or-title>",
		Short: "Render one conversation of an export",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}

			cfg, err := loadOptionalConfig(configPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			outFile, _ := out.(*os.File)
			return view.Run(view.Options{
				ExportDir:    args[0],
				Selector:     args[1],
				Config:       cfg,
				Format:       formatFlag,
				Wrap:         wrap,
				ForceColor:   forceColor,
				ForceNoColor: forceNoColor,
				NoPager:      noPager,
				Logger:       logging.New(logging.Options{Level: "warn", Writer: cmd.ErrOrStderr()}),
				Out:          out,
				OutFile:      outFile,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "configuration file (default: built-in settings)")
	flags.StringVar(&formatFlag, "format", "markdown", "output format: markdown, text, or chat")
	flags.IntVar(&wrap, "wrap", 0, "wrap message body at the given column width")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")
	flags.BoolVar(&noPager, "no-pager", false, "print directly instead of piping through $PAGER")

	return cmd
}

// loadOptionalConfig returns the built-in configuration when path is empty.
func loadOptionalConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

type infoPayload struct {
	Index        int    `json:"index"`
	ID           string `json:"id"`
	Title        string `json:"title"`
	Source       string `json:"source"`
	Record       int    `json:"record"`
	CreatedAt    string `json:"created_at"`
	MessageCount int    `json:"message_count"`
	ImageCount   int    `json:"image_count"`
	FileName     string `json:"file_name"`
}

func newInfoCmd() *cobra.Command {
	var (
		formatFlag string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "info <export-dir> <index-or-title>",
		Short: "Show metadata of one conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadOptionalConfig(configPath)
			if err != nil {
				return err
			}

			_, summary, err := archive.Find(args[0], args[1])
			if err != nil {
				return err
			}

			created := ""
			if !summary.CreatedAt.IsZero() {
				created = summary.CreatedAt.Format(time.RFC3339)
			}
			payload := infoPayload{
				Index:        summary.Index,
				ID:           summary.ID,
				Title:        summary.Title,
				Source:       summary.Source,
				Record:       summary.Record,
				CreatedAt:    created,
				MessageCount: summary.Messages,
				ImageCount:   summary.Images,
				FileName:     documentName(cfg, summary.Title),
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "text":
				renderInfoText(cmd.OutOrStdout(), payload)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")
	flags.StringVarP(&configPath, "config", "c", "", "configuration file used to derive the document name")

	return cmd
}

// documentName reports the file a conversion would write for title.
func documentName(cfg config.Config, title string) string {
	return transcript.New(cfg, attach.Layout{}, nil, nil).FileName(title)
}

func renderInfoText(out io.Writer, payload infoPayload) {
	const labelWidth = 14
	writeKV(out, labelWidth, "Index", fmt.Sprintf("%d", payload.Index))
	writeKV(out, labelWidth, "ID", payload.ID)
	writeKV(out, labelWidth, "Title", collapseWhitespace(payload.Title))
	writeKV(out, labelWidth, "Created At", payload.CreatedAt)
	writeKV(out, labelWidth, "Message Count", fmt.Sprintf("%d", payload.MessageCount))
	writeKV(out, labelWidth, "Image Count", fmt.Sprintf("%d", payload.ImageCount))
	writeKV(out, labelWidth, "Source", fmt.Sprintf("%s [%d]", payload.Source, payload.Record))
	writeKV(out, labelWidth, "Document", payload.FileName)
}

func writeKV(out io.Writer, width int, label string, value string) {
	fmt.Fprintf(out, "%-*s: %s\n", width, label, value) //nolint:errcheck
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(text)), " ")
}
