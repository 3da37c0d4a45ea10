// Package events is the decision journal: one JSON line per helper
// invocation, appended after the decision is made.
package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/treykane/auth-helper/internal/appconfig"
	"github.com/treykane/auth-helper/internal/model"
)

// Event is one resolved invocation persisted to journal.jsonl.
type Event struct {
	Timestamp    time.Time          `json:"timestamp"`
	InvocationID string             `json:"invocation_id"`
	Action       model.Action       `json:"action"`
	Tokens       []string           `json:"tokens,omitempty"`
	Kind         model.DecisionKind `json:"kind"`
	Rule         string             `json:"rule,omitempty"`
	Host         string             `json:"host,omitempty"`
	ServerID     string             `json:"server_id,omitempty"`
	Matches      int                `json:"matches"`
	DurationMS   float64            `json:"duration_ms"`
}

// Query controls event filtering and bounded reads.
type Query struct {
	Action model.Action
	Kind   model.DecisionKind
	Since  time.Time
	Limit  int
}

// Store provides append/read access to the journal file.
type Store struct {
	path string
}

// NewStore returns a store backed by the default journal path.
func NewStore() (*Store, error) {
	path, err := appconfig.JournalFilePath()
	if err != nil {
		return nil, err
	}
	return Open(path), nil
}

// Open returns a store backed by path.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path is the journal file the store reads and appends.
func (s *Store) Path() string { return s.path }

// Append writes a single event as one JSON line.
func (s *Store) Append(evt Event) error {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("append journal: %w", err)
	}
	return nil
}

// Read returns events in append order, filtered by query, keeping the last
// q.Limit entries when a limit is set. Malformed lines are skipped.
func (s *Store) Read(q Query) ([]Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var evt Event
		if err := json.Unmarshal([]byte(line), &evt); err != nil {
			continue
		}
		if !matches(evt, q) {
			continue
		}
		out = append(out, evt)
		if q.Limit > 0 && len(out) > q.Limit {
			out = out[len(out)-q.Limit:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan journal: %w", err)
	}
	return out, nil
}

// FromDecision fills the decision-derived fields of an event.
func FromDecision(id string, action model.Action, tokens []string, d model.Decision, took time.Duration) Event {
	evt := Event{
		InvocationID: id,
		Action:       action,
		Tokens:       append([]string(nil), tokens...),
		Kind:         d.Kind,
		Rule:         d.Rule,
		Matches:      len(d.Matches),
		DurationMS:   float64(took.Microseconds()) / 1000,
	}
	if t := d.Target; t != nil {
		evt.Host = t.Literal
		if t.Record != nil {
			evt.ServerID = t.Record.ServerID
			evt.Host = t.Record.ServerName
		}
	}
	return evt
}

func matches(evt Event, q Query) bool {
	if q.Action != "" && evt.Action != q.Action {
		return false
	}
	if q.Kind != "" && evt.Kind != q.Kind {
		return false
	}
	if !q.Since.IsZero() && evt.Timestamp.Before(q.Since) {
		return false
	}
	return true
}
