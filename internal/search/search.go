// Package search matches a query against host record fields.
package search

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/treykane/auth-helper/internal/model"
)

// Options controls one Search call.
type Options struct {
	// Fields are tried in order; nil means model.DefaultSearchFields.
	Fields []string
	// Exact requires field == query instead of substring containment.
	Exact bool
	// Project, when set, skips records of any other project before matching.
	Project string
	// SortBy stable-sorts the result by this field ascending.
	SortBy string
}

// Search returns the records matching query, annotated with the first field
// that matched. Comparison is case-insensitive. Results keep input order
// unless opts.SortBy is set. No match yields an empty, non-nil slice.
func Search(query string, records []model.HostRecord, opts Options) []model.MatchResult {
	start := time.Now()
	fields := opts.Fields
	if fields == nil {
		fields = model.DefaultSearchFields
	}
	q := strings.ToLower(query)

	out := []model.MatchResult{}
	for _, rec := range records {
		if opts.Project != "" && rec.ProjectName != opts.Project {
			continue
		}
		field, ok := matchRecord(q, rec, fields, opts.Exact)
		if !ok {
			continue
		}
		res := model.MatchResult{Record: rec}
		if opts.Exact {
			res.ExactMatch = field
		} else {
			res.MatchedBy = field
		}
		out = append(out, res)
	}

	if opts.SortBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := out[i].Record.Field(opts.SortBy)
			b, _ := out[j].Record.Field(opts.SortBy)
			return a < b
		})
	}

	log.Debug().
		Str("query", query).
		Strs("fields", fields).
		Bool("exact", opts.Exact).
		Str("project", opts.Project).
		Int("matches", len(out)).
		Dur("took", time.Since(start)).
		Msg("search")
	return out
}

func matchRecord(q string, rec model.HostRecord, fields []string, exact bool) (string, bool) {
	for _, f := range fields {
		v, ok := rec.Field(f)
		if !ok {
			continue
		}
		v = strings.ToLower(v)
		if exact && v == q {
			return f, true
		}
		if !exact && strings.Contains(v, q) {
			return f, true
		}
	}
	return "", false
}
