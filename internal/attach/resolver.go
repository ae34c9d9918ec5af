package attach

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"chatexport/internal/fsname"
)

// Resolver copies attachments into a Layout under names that are unique
// within their subtree for the whole run. It is not safe for concurrent use;
// a run resolves one attachment at a time.
type Resolver struct {
	layout   Layout
	reserved map[Kind]map[string]struct{}
	copied   map[Kind]int
}

// NewResolver returns a Resolver writing into layout.
func NewResolver(layout Layout) *Resolver {
	return &Resolver{
		layout: layout,
		reserved: map[Kind]map[string]struct{}{
			KindImage: {},
			KindFile:  {},
		},
		copied: map[Kind]int{},
	}
}

// Resolve copies src into the subtree chosen by displayName and returns the
// destination relative to the documents directory, slash-separated. Every
// call reserves a fresh name: resolving the same source twice copies it
// twice, as name_1.ext the second time.
func (r *Resolver) Resolve(src, displayName string) (string, error) {
	kind := Classify(displayName)
	dir := r.layout.Dir(kind)
	name := r.reserve(kind, dir, fsname.Sanitize(displayName))
	dst := filepath.Join(dir, name)

	if err := copyFile(src, dst); err != nil {
		return "", &AttachmentIOError{Src: src, Dst: dst, Err: err}
	}
	r.copied[kind]++

	rel, err := filepath.Rel(r.layout.Documents, dst)
	if err != nil {
		return "", fmt.Errorf("relative attachment path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

// Copied returns how many attachments of kind were copied so far.
func (r *Resolver) Copied(kind Kind) int {
	return r.copied[kind]
}

func (r *Resolver) reserve(kind Kind, dir, base string) string {
	used := r.reserved[kind]
	name := base
	for n := 1; r.taken(used, dir, name); n++ {
		name = fsname.WithCounter(base, n)
	}
	used[name] = struct{}{}
	return name
}

// taken covers names handed out earlier in this run and files left in the
// subtree by previous runs.
func (r *Resolver) taken(used map[string]struct{}, dir, name string) bool {
	if _, ok := used[name]; ok {
		return true
	}
	_, err := os.Lstat(filepath.Join(dir, name))
	return err == nil
}

// copyFile copies the bytes, permission bits and modification time of src
// to dst. dst must not exist.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()    //nolint:errcheck
		os.Remove(dst) //nolint:errcheck
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst) //nolint:errcheck
		return err
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
