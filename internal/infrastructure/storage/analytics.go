package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pricecheck/backend/internal/domain"
)

// AnalyticsFile stores the analytics state as a single JSON document
type AnalyticsFile struct {
	path string
	mu   sync.Mutex
}

// NewAnalyticsFile returns a repository backed by the file at path
func NewAnalyticsFile(path string) *AnalyticsFile {
	return &AnalyticsFile{path: path}
}

// Load reads the state. A missing or corrupt file yields an empty state.
func (a *AnalyticsFile) Load(ctx context.Context) (*domain.AnalyticsState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	state := &domain.AnalyticsState{Events: []domain.AnalyticsEvent{}}

	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read analytics file: %w", err)
	}

	if err := json.Unmarshal(data, state); err != nil {
		return &domain.AnalyticsState{Events: []domain.AnalyticsEvent{}}, nil
	}
	if state.Events == nil {
		state.Events = []domain.AnalyticsEvent{}
	}
	return state, nil
}

// Save writes the state through a temp file and rename
func (a *AnalyticsFile) Save(ctx context.Context, state *domain.AnalyticsState) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analytics state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create analytics directory: %w", err)
	}

	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write analytics file: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("replace analytics file: %w", err)
	}
	return nil
}
