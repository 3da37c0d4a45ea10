// Package present renders host listings for search results and ambiguous
// go decisions.
package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/treykane/auth-helper/internal/appconfig"
	"github.com/treykane/auth-helper/internal/model"
	"github.com/treykane/auth-helper/internal/util"
)

// FieldMatchInfo is a virtual column describing how a host matched.
const FieldMatchInfo = "match_info"

// ambiguousFields replaces the configured columns in ambiguous mode.
var ambiguousFields = []string{
	model.FieldServerID,
	FieldMatchInfo,
	model.FieldProjectName,
	model.FieldServerIP,
	model.FieldServerName,
}

// Minimum column widths.
var columnWidth = map[string]int{
	model.FieldProjectName: 8,
	model.FieldServerName:  12,
	model.FieldServerID:    7,
	"last_ip":              16,
	"ssh_config_ip":        16,
}

// Listing controls one PrintHosts call.
type Listing struct {
	// Ambiguous prints the not-found / ambiguous banner and match info
	// instead of project titles. An empty host list is always ambiguous.
	Ambiguous bool
	// Untitled suppresses project titles.
	Untitled bool
	// NoTotal suppresses the trailing total in list mode.
	NoTotal bool
	// Query is echoed in the not-found banner.
	Query []string
}

// Printer writes host listings to out.
type Printer struct {
	out    io.Writer
	fields []string
	sep    string

	title lipgloss.Style
	warn  lipgloss.Style
	info  lipgloss.Style
}

// New builds a Printer from the ui section of the config. Colors are only
// emitted when cfg.Colors is set.
func New(out io.Writer, cfg appconfig.UIConfig) *Printer {
	r := lipgloss.NewRenderer(out)
	if cfg.Colors {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	fields := cfg.PrintFields
	if len(fields) == 0 {
		fields = util.DefaultPrintFields
	}
	sep := cfg.FieldSeparator
	if sep == "" {
		sep = util.DefaultFieldSeparator
	}

	return &Printer{
		out:    out,
		fields: fields,
		sep:    sep,
		title:  r.NewStyle().Foreground(lipgloss.Color("45")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("142")),
		info:   r.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// PrintDecision renders the candidates of an ambiguous decision.
func (p *Printer) PrintDecision(d model.Decision, query []string) {
	p.PrintHosts(d.Matches, Listing{
		Ambiguous: d.Render == model.RenderAmbiguous,
		Query:     query,
	})
}

// PrintHosts writes hosts grouped under project titles, or as an indented
// ambiguous listing.
func (p *Printer) PrintHosts(hosts []model.MatchResult, l Listing) {
	ambiguous := l.Ambiguous || len(hosts) == 0
	fields := p.fields
	if ambiguous {
		fields = ambiguousFields
	}

	if ambiguous {
		if len(hosts) == 0 {
			p.println("\n" + p.warn.Render("  No servers found by this query: ") + strings.Join(l.Query, " "))
		} else {
			p.println("\n" + p.warn.Render("  Ambiguous, more than one server found by this query: ") + "\n")
		}
	}
	if l.Untitled {
		p.println("")
	}

	current := ""
	for i, h := range hosts {
		project := h.Record.ProjectName
		if !l.Untitled && !ambiguous && (i == 0 || project != current) {
			current = project
			p.println("\n" + p.title.Render(project) + "\n------")
		}

		line := p.Line(h, fields)
		if ambiguous || l.Untitled {
			line = "  " + line
		}
		p.println(line)
	}

	switch {
	case ambiguous:
		p.println(fmt.Sprintf("\n  Total: %d\n", len(hosts)))
	case !l.NoTotal:
		p.println(fmt.Sprintf("\n------\nTotal: %d\n", len(hosts)))
	default:
		p.println("")
	}
}

// Line joins the requested fields of h, or the configured ones when fields
// is nil. Absent fields are skipped; present ones are padded to their
// minimum width and end in a space.
func (p *Printer) Line(h model.MatchResult, fields []string) string {
	if fields == nil {
		fields = p.fields
	}
	cells := make([]string, 0, len(fields))
	for _, f := range fields {
		var v string
		if f == FieldMatchInfo {
			v = p.matchInfo(h)
		} else {
			var ok bool
			if v, ok = h.Record.Field(f); !ok {
				continue
			}
		}
		cells = append(cells, pad(f, v))
	}
	return strings.Join(cells, p.sep)
}

func (p *Printer) matchInfo(h model.MatchResult) string {
	var parts []string
	if h.MatchedBy != "" {
		parts = append(parts, "by: "+h.MatchedBy)
	}
	if h.ExactMatch != "" {
		parts = append(parts, "exact: "+h.ExactMatch)
	}
	if len(parts) == 0 {
		return ""
	}
	return p.info.Render(strings.Join(parts, ", "))
}

func pad(field, v string) string {
	if v == "" {
		return v
	}
	if w, ok := columnWidth[field]; ok {
		v = util.PadRight(v, w)
	}
	if !strings.HasSuffix(v, " ") {
		v += " "
	}
	return v
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.out, s)
}
