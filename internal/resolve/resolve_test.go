package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treykane/auth-helper/internal/directory"
	"github.com/treykane/auth-helper/internal/model"
)

func engine(blind bool, recs ...model.HostRecord) *Engine {
	return New(directory.New(recs), Options{Blind: blind})
}

func goReq(tokens ...string) Request {
	return Request{Action: model.ActionGo, Tokens: tokens}
}

func searchReq(tokens ...string) Request {
	return Request{Action: model.ActionSearch, Tokens: tokens}
}

var (
	web7  = model.HostRecord{ProjectName: "web", ServerID: "7", ServerName: "web7", ServerIP: "10.0.0.7"}
	web8  = model.HostRecord{ProjectName: "web", ServerID: "8", ServerName: "web8.example.com", ServerIP: "10.0.0.8", ServerUser: "deploy"}
	db1   = model.HostRecord{ProjectName: "db", ServerID: "21", ServerName: "db1", ServerIP: "10.0.1.21"}
	db2   = model.HostRecord{ProjectName: "db", ServerID: "22", ServerName: "db2", ServerIP: "10.0.1.22"}
	solo  = model.HostRecord{ProjectName: "solo", ServerID: "40", ServerName: "solo1", ServerIP: "10.0.4.40"}
	twins = model.HostRecord{ProjectName: "db", ServerID: "23", ServerName: "db1", ServerIP: "10.0.1.23"}
)

func TestServerIDConnects(t *testing.T) {
	rec := model.HostRecord{ServerID: "7", ProjectName: "web"}
	d := engine(false, rec).Resolve(goReq("7"))

	require.Equal(t, model.DecisionConnect, d.Kind)
	assert.Equal(t, "server-id", d.Rule)
	require.NotNil(t, d.Target.Record)
	assert.Equal(t, model.ConnectByServerID, d.Target.By)
	assert.Equal(t, rec, *d.Target.Record)
	assert.Equal(t, "web", d.Target.Project)
}

func TestProjectListsWithoutBlind(t *testing.T) {
	d := engine(false, web7, web8, db1).Resolve(goReq("web"))

	require.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.Equal(t, model.RenderList, d.Render)
	require.Len(t, d.Matches, 2)
	assert.Equal(t, "7", d.Matches[0].Record.ServerID)
	assert.Equal(t, "8", d.Matches[1].Record.ServerID)
	assert.Equal(t, model.FieldProjectName, d.Matches[0].ExactMatch)
}

func TestBlindConnectsSingleHostProject(t *testing.T) {
	d := engine(true, solo, db1, db2).Resolve(goReq("solo"))

	require.Equal(t, model.DecisionConnect, d.Kind)
	assert.Equal(t, "project", d.Rule)
	assert.Equal(t, model.ConnectByServerID, d.Target.By)
	assert.Equal(t, "40", d.Target.Record.ServerID)
}

func TestBlindOffSingleHostProjectStillLists(t *testing.T) {
	d := engine(false, solo).Resolve(goReq("solo"))
	require.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.Len(t, d.Matches, 1)
}

func TestBlindDoesNotConnectMultiHostProject(t *testing.T) {
	d := engine(true, db1, db2).Resolve(goReq("db"))
	require.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.Len(t, d.Matches, 2)
}

func TestBareIPv4SkipsDirectory(t *testing.T) {
	d := engine(false).Resolve(goReq("10.0.0.5"))

	require.Equal(t, model.DecisionConnect, d.Kind)
	assert.Equal(t, "ipv4", d.Rule)
	assert.Equal(t, model.ConnectByLiteral, d.Target.By)
	assert.Equal(t, "10.0.0.5", d.Target.Literal)
	assert.Nil(t, d.Target.Record)
}

func TestProjectMissWithPlainNameIsNotFound(t *testing.T) {
	d := engine(false, web7, web8).Resolve(goReq("web", "db1"))

	require.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.Equal(t, model.RenderAmbiguous, d.Render)
	assert.Empty(t, d.Matches)
	assert.True(t, d.IsNotFound())
}

func TestTooManyTokens(t *testing.T) {
	d := engine(false, web7).Resolve(goReq("a", "b", "c"))

	require.Equal(t, model.DecisionInvalidInput, d.Kind)
	err := Err(d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestDigitTokenIsServerIDNeverHostname(t *testing.T) {
	d := engine(false, web7, web8).Resolve(goReq("8"))
	require.Equal(t, model.DecisionConnect, d.Kind)
	assert.Equal(t, "server-id", d.Rule)

	d = engine(false).Resolve(goReq("8"))
	require.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.Equal(t, model.RenderAmbiguous, d.Render)
	assert.True(t, d.IsNotFound())
}

func TestNumericProjectNameLosesToServerID(t *testing.T) {
	numeric := model.HostRecord{ProjectName: "2024", ServerID: "99"}
	d := engine(true, numeric).Resolve(goReq("2024"))
	assert.Equal(t, "server-id", d.Rule)
	assert.True(t, d.IsNotFound())
}

func TestFQDNConnectsLiteral(t *testing.T) {
	d := engine(false, web7).Resolve(goReq("Bastion.Example.org"))
	require.Equal(t, model.DecisionConnect, d.Kind)
	assert.Equal(t, "fqdn", d.Rule)
	assert.Equal(t, "Bastion.Example.org", d.Target.Literal)
}

func TestUnrecognizedSingleToken(t *testing.T) {
	for _, tok := range []string{"nosuchproject", "under_score.com", "::1"} {
		d := engine(false, web7).Resolve(goReq(tok))
		assert.Equal(t, model.DecisionInvalidInput, d.Kind, tok)
		assert.Equal(t, "unrecognized", d.Rule, tok)
	}
}

func TestEmptyTokens(t *testing.T) {
	assert.Equal(t, model.DecisionInvalidInput, engine(false).Resolve(goReq()).Kind)
	assert.Equal(t, model.DecisionInvalidInput, engine(false).Resolve(searchReq()).Kind)
	assert.Equal(t, model.DecisionInvalidInput, engine(false).Resolve(Request{Action: "ssh", Tokens: []string{"x"}}).Kind)
	assert.NoError(t, Err(engine(false).Resolve(goReq("10.0.0.1"))))
}

func TestPairVariantFollowsQueryShape(t *testing.T) {
	e := engine(false, web7, web8, db1, db2)
	cases := []struct {
		tokens []string
		rule   string
		by     model.ConnectBy
		id     string
	}{
		{[]string{"web", "7"}, "project-server-id", model.ConnectByServerID, "7"},
		{[]string{"web", "10.0.0.8"}, "project-server-ip", model.ConnectByServerIP, "8"},
		{[]string{"web", "WEB8.example.com"}, "project-fqdn", model.ConnectByFQDN, "8"},
		{[]string{"db", "db2"}, "project-server-name", model.ConnectByServerName, "22"},
	}
	for _, tc := range cases {
		d := e.Resolve(goReq(tc.tokens...))
		require.Equal(t, model.DecisionConnect, d.Kind, tc.tokens)
		assert.Equal(t, tc.rule, d.Rule, tc.tokens)
		assert.Equal(t, tc.by, d.Target.By, tc.tokens)
		assert.Equal(t, tc.id, d.Target.Record.ServerID, tc.tokens)
		assert.Equal(t, tc.tokens[0], d.Target.Project, tc.tokens)
	}
}

func TestPairSearchIsScopedToProject(t *testing.T) {
	d := engine(false, web7, db1).Resolve(goReq("web", "21"))
	require.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.True(t, d.IsNotFound())
}

func TestPairMultipleHitsAreAmbiguous(t *testing.T) {
	d := engine(false, db1, db2, twins).Resolve(goReq("db", "db1"))
	require.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.Equal(t, "project-ambiguous", d.Rule)
	assert.Equal(t, model.RenderAmbiguous, d.Render)
	assert.Len(t, d.Matches, 2)
}

func TestPairDialAnyway(t *testing.T) {
	e := engine(false, web7)

	d := e.Resolve(goReq("web", "10.9.9.9"))
	require.Equal(t, model.DecisionConnect, d.Kind)
	assert.Equal(t, "project-dial-ipv4", d.Rule)
	assert.Equal(t, "10.9.9.9", d.Target.Literal)
	assert.Equal(t, "web", d.Target.Project)

	d = e.Resolve(goReq("web", "new-box.example.com"))
	require.Equal(t, model.DecisionConnect, d.Kind)
	assert.Equal(t, "project-dial-fqdn", d.Rule)

	d = e.Resolve(goReq("web", "x"))
	assert.True(t, d.IsNotFound(), "single character tokens are never dialed")

	d = e.Resolve(goReq("web", "123"))
	assert.True(t, d.IsNotFound())
}

func TestPairUnknownProject(t *testing.T) {
	d := engine(false, web7).Resolve(goReq("nope", "web7"))
	require.Equal(t, model.DecisionInvalidInput, d.Kind)
	assert.Equal(t, "unknown-project", d.Rule)
	assert.Contains(t, d.Reason, "nope")
}

func TestSearchRules(t *testing.T) {
	e := engine(false, web7, web8, db1, db2, solo)

	d := e.Resolve(searchReq("db"))
	assert.Equal(t, "search-project", d.Rule)
	assert.Equal(t, model.RenderList, d.Render)
	assert.Len(t, d.Matches, 2)

	d = e.Resolve(searchReq("web", "example"))
	assert.Equal(t, "search-in-project", d.Rule)
	require.Len(t, d.Matches, 1)
	assert.Equal(t, "8", d.Matches[0].Record.ServerID)
	assert.Equal(t, model.FieldServerName, d.Matches[0].MatchedBy)

	d = e.Resolve(searchReq("10.0.1"))
	assert.Equal(t, "search-free", d.Rule)
	assert.Len(t, d.Matches, 2)

	d = e.Resolve(searchReq("solo", "extra", "words"))
	assert.Equal(t, "search-free", d.Rule)
	assert.True(t, d.IsNotFound())
}

func TestSearchNeverConnects(t *testing.T) {
	d := engine(true, solo).Resolve(searchReq("40"))
	assert.Equal(t, model.DecisionAmbiguous, d.Kind)
	assert.Len(t, d.Matches, 1)
}

func TestResolveIsIdempotent(t *testing.T) {
	e := engine(true, web7, web8, db1, db2, solo)
	reqs := []Request{
		goReq("7"), goReq("web"), goReq("solo"), goReq("10.0.0.5"),
		goReq("db", "db1"), goReq("web", "zz.example.com"), goReq("a", "b", "c"),
		searchReq("web"), searchReq("10"),
	}
	for _, r := range reqs {
		assert.Equal(t, e.Resolve(r), e.Resolve(r), r.Tokens)
	}
}

func TestCheckShapeNeedsNoDirectory(t *testing.T) {
	_, ok := CheckShape(Request{Action: model.ActionGo, Tokens: []string{"web", "7"}})
	assert.True(t, ok)

	d, ok := CheckShape(Request{Action: model.ActionGo, Tokens: []string{"a", "b", "c"}})
	assert.False(t, ok)
	assert.Equal(t, "go-too-many", d.Rule)

	d = New(nil, Options{}).Resolve(Request{Action: model.ActionSearch})
	assert.Equal(t, model.DecisionInvalidInput, d.Kind)
	assert.Equal(t, "search-empty", d.Rule)
}
