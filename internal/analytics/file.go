package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the aggregate as a JSON document on disk
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the aggregate from disk; (nil, nil) if the file is absent
func (s *FileStore) Load(_ context.Context) (*Aggregate, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read analytics file: %w", err)
	}

	var agg Aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("decode analytics file: %w", err)
	}
	return &agg, nil
}

// Save writes the aggregate atomically via a temp file rename
func (s *FileStore) Save(_ context.Context, agg *Aggregate) error {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode analytics: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create analytics dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write analytics file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace analytics file: %w", err)
	}
	return nil
}
