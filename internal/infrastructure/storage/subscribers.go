// Package storage keeps signups and analytics in flat files on local disk.
package storage

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pricecheck/backend/internal/domain"
)

// SubscriberFile stores one email address per line
type SubscriberFile struct {
	path string
	mu   sync.RWMutex
}

// NewSubscriberFile returns a repository backed by the file at path.
// Call Init to create the file before serving.
func NewSubscriberFile(path string) *SubscriberFile {
	return &SubscriberFile{path: path}
}

// Path returns the file location
func (s *SubscriberFile) Path() string {
	return s.path
}

// Init creates the parent directory and an empty file if either is missing
func (s *SubscriberFile) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create subscriber directory: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create subscriber file: %w", err)
	}
	return f.Close()
}

// List returns the non-empty trimmed lines of the file.
// A missing file lists as empty.
func (s *SubscriberFile) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read subscriber file: %w", err)
	}

	emails := []string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			emails = append(emails, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan subscriber file: %w", err)
	}
	return emails, nil
}

// Append writes email followed by a newline
func (s *SubscriberFile) Append(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open subscriber file: %w", err)
	}
	if _, err := f.WriteString(email + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write subscriber file: %w", err)
	}
	return f.Close()
}

// Export returns the raw file contents
func (s *SubscriberFile) Export(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrSubscriberFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read subscriber file: %w", err)
	}
	return data, nil
}
