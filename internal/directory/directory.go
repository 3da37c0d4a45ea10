// Package directory holds the read-only snapshot of managed hosts and the
// sources it can be loaded from.
package directory

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/treykane/auth-helper/internal/model"
)

// Directory is an immutable, project-sorted host snapshot.
type Directory struct {
	records  []model.HostRecord
	projects []string
	known    map[string]struct{}
	warnings []string
}

// Entry is one raw record as stored by a Source, keyed by its storage id.
type Entry struct {
	Key    string
	Fields map[string]any
	Err    error
}

// Source supplies raw host entries. Implementations may be backed by any
// key-value store; the key is only used for ordering and warnings.
type Source interface {
	Name() string
	Entries(ctx context.Context) ([]Entry, error)
	Close() error
}

// New builds a Directory from already-decoded records. Records are stably
// sorted by project_name; later duplicates of a server_id are dropped.
func New(records []model.HostRecord) *Directory {
	d := &Directory{known: map[string]struct{}{}}
	seen := map[string]bool{}
	for _, r := range records {
		if seen[r.ServerID] {
			d.warnings = append(d.warnings, fmt.Sprintf("duplicate server_id %s skipped (project %s)", r.ServerID, r.ProjectName))
			continue
		}
		seen[r.ServerID] = true
		d.records = append(d.records, r)
		if _, ok := d.known[r.ProjectName]; !ok {
			d.known[r.ProjectName] = struct{}{}
			d.projects = append(d.projects, r.ProjectName)
		}
	}
	sort.SliceStable(d.records, func(i, j int) bool {
		return d.records[i].ProjectName < d.records[j].ProjectName
	})
	sort.Strings(d.projects)
	return d
}

// Load reads every entry from src and builds a Directory. Entries that fail
// to decode are skipped and reported in Warnings. A source error is fatal.
func Load(ctx context.Context, src Source) (*Directory, error) {
	entries, err := src.Entries(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s directory: %w", src.Name(), err)
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	var (
		records  []model.HostRecord
		warnings []string
	)
	for _, e := range entries {
		if e.Err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", e.Key, e.Err))
			continue
		}
		rec, recWarnings, err := DecodeRecord(e.Fields)
		for _, w := range recWarnings {
			warnings = append(warnings, fmt.Sprintf("%s: %s", e.Key, w))
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", e.Key, err))
			continue
		}
		records = append(records, rec)
	}

	d := New(records)
	d.warnings = append(warnings, d.warnings...)
	log.Debug().
		Str("source", src.Name()).
		Int("entries", len(entries)).
		Int("records", len(d.records)).
		Int("projects", len(d.projects)).
		Msg("directory loaded")
	return d, nil
}

// Records returns the host records in directory order. The slice must not be modified.
func (d *Directory) Records() []model.HostRecord { return d.records }

// Projects returns the sorted distinct project names.
func (d *Directory) Projects() []string { return d.projects }

// Warnings lists entries skipped or adjusted while loading.
func (d *Directory) Warnings() []string { return d.warnings }

// Len returns the number of records.
func (d *Directory) Len() int { return len(d.records) }

// IsKnownProject reports exact, case-sensitive membership in the project set.
func (d *Directory) IsKnownProject(name string) bool {
	_, ok := d.known[name]
	return ok
}

// ByServerID returns the record with the given id.
func (d *Directory) ByServerID(id string) (model.HostRecord, bool) {
	for _, r := range d.records {
		if r.ServerID == id {
			return r, true
		}
	}
	return model.HostRecord{}, false
}
