package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource reads host records from a YAML or JSON document holding either
// a list of records or a mapping of key to record.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Entries(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	var entries []Entry
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case []any:
		for i, item := range v {
			// Zero-padded keys keep list order through the key sort in Load.
			entries = append(entries, fileEntry(fmt.Sprintf("#%06d", i), item))
		}
	case map[string]any:
		for key, item := range v {
			entries = append(entries, fileEntry(key, item))
		}
	default:
		return nil, fmt.Errorf("parse %s: expected a list or mapping of records", s.path)
	}
	return entries, nil
}

func (s *FileSource) Close() error { return nil }

func fileEntry(key string, item any) Entry {
	fields, ok := item.(map[string]any)
	if !ok {
		return Entry{Key: key, Err: fmt.Errorf("record is %T, not a mapping", item)}
	}
	return Entry{Key: key, Fields: fields}
}
