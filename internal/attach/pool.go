package attach

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Pool is the set of loose attachment files at the top level of an export
// directory, sorted by name.
type Pool struct {
	dir   string
	names []string
}

// NewPool scans dir once. Subdirectories and conversation files (*.json) are
// not attachments and are left out.
func NewPool(dir string) (*Pool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read export directory: %w", err)
	}

	pool := &Pool{dir: dir}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.EqualFold(filepath.Ext(name), ".json") {
			continue
		}
		pool.names = append(pool.names, name)
	}
	return pool, nil
}

// Len returns the number of files in the pool.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.names)
}

// Lookup returns the path of the first file whose name contains token.
// When several files match, the first in name order wins.
func (p *Pool) Lookup(token string) (string, error) {
	if p == nil || token == "" {
		return "", ErrAttachmentNotFound
	}
	for _, name := range p.names {
		if strings.Contains(name, token) {
			return filepath.Join(p.dir, name), nil
		}
	}
	return "", fmt.Errorf("token %q: %w", token, ErrAttachmentNotFound)
}
