// Package docstore holds each tenant's knowledge-base document as a plain
// file under the data directory, addressed by tenant subdomain.
package docstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Load when the tenant has no document.
var ErrNotFound = errors.New("document not found")

const docExt = ".md"

// Store reads and writes per-tenant documents. Writes are whole-file
// replacements; there is no partial edit and no versioning, last write wins.
type Store struct {
	root string
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{root: dir}, nil
}

// Root returns the data directory the store is rooted at.
func (s *Store) Root() string { return s.root }

func (s *Store) path(subdomain string) string {
	return filepath.Join(s.root, subdomain+docExt)
}

// Save replaces the tenant's document. The content is written to a
// temporary file and renamed into place, so a concurrent Load never
// observes a torn document.
func (s *Store) Save(subdomain, content string) error {
	tmp, err := os.CreateTemp(s.root, subdomain+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp document: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close document: %w", err)
	}

	if err := os.Rename(tmpName, s.path(subdomain)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// Load returns the tenant's document, or ErrNotFound when none exists.
func (s *Store) Load(subdomain string) (string, error) {
	b, err := os.ReadFile(s.path(subdomain))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("read document: %w", err)
	}
	return string(b), nil
}

// Exists reports whether the tenant has an uploaded document.
func (s *Store) Exists(subdomain string) bool {
	_, err := os.Stat(s.path(subdomain))
	return err == nil
}

// Delete removes the tenant's document. Deleting an absent document is not
// an error.
func (s *Store) Delete(subdomain string) error {
	err := os.Remove(s.path(subdomain))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// SubdomainFromPath maps a document file path back to the owning tenant's
// subdomain, or "" when the path is not a document file.
func SubdomainFromPath(path string) string {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, docExt) {
		return ""
	}
	sub := strings.TrimSuffix(base, docExt)
	// Temp files look like "<subdomain>.<random>.tmp" and never match here,
	// but a bare dot would produce an empty subdomain; reject it.
	if sub == "" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}
