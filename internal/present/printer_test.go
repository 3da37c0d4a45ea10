package present

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/treykane/auth-helper/internal/appconfig"
	"github.com/treykane/auth-helper/internal/model"
)

func hosts() []model.MatchResult {
	return []model.MatchResult{
		{Record: model.HostRecord{ProjectName: "db", ServerID: "21", ServerName: "db1", ServerIP: "10.0.1.21"}, ExactMatch: "project_name"},
		{Record: model.HostRecord{ProjectName: "web", ServerID: "7", ServerName: "web7.example.com", ServerIP: "10.0.0.7"}, MatchedBy: "server_name"},
		{Record: model.HostRecord{ProjectName: "web", ServerID: "8", ServerName: "web8"}, MatchedBy: "server_name"},
	}
}

func TestPrintHostsGroupsByProject(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, appconfig.UIConfig{}).PrintHosts(hosts(), Listing{})

	want := strings.Join([]string{
		"",
		"db",
		"------",
		"21      | 10.0.1.21  | db1         ",
		"",
		"web",
		"------",
		"7       | 10.0.0.7  | web7.example.com ",
		"8       | web8        ",
		"",
		"------",
		"Total: 3",
		"",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestPrintHostsAmbiguous(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, appconfig.UIConfig{})
	p.PrintHosts(hosts()[1:], Listing{Ambiguous: true, Query: []string{"web"}})

	out := buf.String()
	assert.Contains(t, out, "Ambiguous, more than one server found by this query:")
	assert.NotContains(t, out, "------")
	assert.Contains(t, out, "  7       | by: server_name  | web      | 10.0.0.7  | web7.example.com \n")
	assert.Contains(t, out, "\n  Total: 2\n")
}

func TestPrintHostsNotFound(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, appconfig.UIConfig{}).PrintHosts(nil, Listing{Query: []string{"web", "123"}})

	assert.Equal(t, "\n  No servers found by this query: web 123\n\n  Total: 0\n\n", buf.String())
}

func TestPrintDecisionFollowsRenderMode(t *testing.T) {
	var list, amb bytes.Buffer
	d := model.Decision{Kind: model.DecisionAmbiguous, Matches: hosts()[1:], Render: model.RenderList}
	New(&list, appconfig.UIConfig{}).PrintDecision(d, []string{"web"})
	assert.Contains(t, list.String(), "web\n------\n")

	d.Render = model.RenderAmbiguous
	New(&amb, appconfig.UIConfig{}).PrintDecision(d, []string{"web"})
	assert.Contains(t, amb.String(), "Ambiguous")
}

func TestPrintHostsUntitledAndNoTotal(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, appconfig.UIConfig{}).PrintHosts(hosts()[:1], Listing{Untitled: true, NoTotal: true})
	assert.Equal(t, "\n  21      | 10.0.1.21  | db1         \n\n", buf.String())
}

func TestLineCustomFields(t *testing.T) {
	p := New(&bytes.Buffer{}, appconfig.UIConfig{FieldSeparator: ";"})
	h := model.MatchResult{Record: model.HostRecord{
		ProjectName: "web",
		ServerID:    "7",
		ServerPort:  2222,
		Extra:       map[string]string{"last_ip": "192.0.2.1"},
	}}
	got := p.Line(h, []string{"project_name", "server_port", "last_ip", "os_version", FieldMatchInfo})
	assert.Equal(t, "web     ;2222 ;192.0.2.1       ;", got)
}

func TestColorsOnlyWhenEnabled(t *testing.T) {
	var plain, colored bytes.Buffer
	New(&plain, appconfig.UIConfig{}).PrintHosts(hosts()[:1], Listing{})
	New(&colored, appconfig.UIConfig{Colors: true}).PrintHosts(hosts()[:1], Listing{})

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
}
