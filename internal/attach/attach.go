// Package attach locates attachment files in an export directory and copies
// them into a deduplicated output tree.
package attach

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatexport/internal/fsname"
)

// ErrAttachmentNotFound is returned when no loose file matches a token.
var ErrAttachmentNotFound = errors.New("attachment not found")

// Kind is the output subtree an attachment lands in.
type Kind string

const (
	KindImage Kind = "images"
	KindFile  Kind = "files"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".webp": {},
}

// Classify picks the subtree for name from its extension, case-insensitively.
func Classify(name string) Kind {
	_, ext := fsname.SplitExt(name)
	if _, ok := imageExtensions[strings.ToLower(ext)]; ok {
		return KindImage
	}
	return KindFile
}

// AttachmentIOError reports a failed attachment copy.
type AttachmentIOError struct {
	Src string
	Dst string
	Err error
}

func (e *AttachmentIOError) Error() string {
	return fmt.Sprintf("copy attachment %s to %s: %v", e.Src, e.Dst, e.Err)
}

func (e *AttachmentIOError) Unwrap() error { return e.Err }

// Layout is the output directory tree of a run.
type Layout struct {
	Root        string
	Documents   string
	Attachments string
	Images      string
	Files       string
}

// NewLayout returns the standard layout under root:
//
//	root/conversations
//	root/00attachments/images
//	root/00attachments/files
func NewLayout(root string) Layout {
	attachments := filepath.Join(root, "00attachments")
	return Layout{
		Root:        root,
		Documents:   filepath.Join(root, "conversations"),
		Attachments: attachments,
		Images:      filepath.Join(attachments, string(KindImage)),
		Files:       filepath.Join(attachments, string(KindFile)),
	}
}

// Dir returns the directory for kind.
func (l Layout) Dir(kind Kind) string {
	if kind == KindImage {
		return l.Images
	}
	return l.Files
}

// EnsureDirs creates every directory of the layout. Existing directories and
// their contents are left alone.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.Attachments, l.Documents, l.Images, l.Files} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	return nil
}
