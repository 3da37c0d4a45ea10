// Package resolve turns a CLI action and its free tokens into a Decision.
//
// Each (action, token count) pair owns an ordered rule table. Rules are
// evaluated top to bottom and the first guard that holds produces the
// decision. Token shapes overlap, so the table order is the precedence:
// numeric ids and known projects are tried before IPv4, IPv4 before FQDN.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/treykane/auth-helper/internal/directory"
	"github.com/treykane/auth-helper/internal/model"
	"github.com/treykane/auth-helper/internal/search"
	"github.com/treykane/auth-helper/internal/token"
	"github.com/treykane/auth-helper/internal/util"
)

// ErrInvalidInput marks decisions the user must fix before anything runs.
var ErrInvalidInput = errors.New("invalid input")

// Options are the configuration switches the engine depends on.
type Options struct {
	// Blind connects straight away when a project holds exactly one host.
	Blind bool
}

// Request is one invocation of the helper.
type Request struct {
	Action    model.Action
	Tokens    []string
	ExtraArgs []string
}

// Engine resolves requests against a fixed directory snapshot.
type Engine struct {
	dir  *directory.Directory
	opts Options
}

// New returns an engine over dir. The directory is only read, never
// modified, and may be nil when every request is rejected by CheckShape.
func New(dir *directory.Directory, opts Options) *Engine {
	return &Engine{dir: dir, opts: opts}
}

// Resolve is pure: the same request against the same directory and options
// always yields an equal Decision.
func (e *Engine) Resolve(req Request) model.Decision {
	d, ok := CheckShape(req)
	if ok {
		switch {
		case req.Action == model.ActionSearch:
			d = e.run(searchRules, req)
		case len(req.Tokens) == 1:
			d = e.run(goSingleRules, req)
		default:
			d = e.run(goPairRules, req)
		}
	}

	ev := log.Debug().
		Str("action", string(req.Action)).
		Strs("tokens", req.Tokens).
		Str("rule", d.Rule).
		Str("kind", string(d.Kind)).
		Int("matches", len(d.Matches))
	if len(req.Tokens) > 0 {
		ev = ev.Stringer("shape", token.Classify(req.Tokens[len(req.Tokens)-1]))
	}
	ev.Msg("resolved")
	return d
}

// CheckShape rejects requests whose action or token count can never
// resolve. It needs no directory, so callers may run it before loading one.
func CheckShape(req Request) (model.Decision, bool) {
	switch req.Action {
	case model.ActionSearch:
		if len(req.Tokens) == 0 {
			return invalid("search-empty", "search needs at least one query token"), false
		}
	case model.ActionGo:
		switch len(req.Tokens) {
		case 0:
			return invalid("go-empty", "go needs a project, server id, ip or hostname"), false
		case 1, 2:
		default:
			return invalid("go-too-many", fmt.Sprintf("go takes at most 2 tokens, got %d", len(req.Tokens))), false
		}
	default:
		return invalid("unknown-action", fmt.Sprintf("unknown action %q", req.Action)), false
	}
	return model.Decision{}, true
}

// Err returns a wrapped ErrInvalidInput for invalid decisions and nil otherwise.
func Err(d model.Decision) error {
	if d.Kind != model.DecisionInvalidInput {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, d.Reason)
}

func (e *Engine) run(rules []rule, req Request) model.Decision {
	st := &state{engine: e, tokens: req.Tokens}
	for _, r := range rules {
		if r.guard(st) {
			d := r.apply(st)
			d.Rule = r.name
			return d
		}
	}
	// Every table ends with an unconditional rule.
	return invalid("no-rule", "no resolution rule matched")
}

// state carries one evaluation; the scoped search is computed at most once.
type state struct {
	engine *Engine
	tokens []string

	scoped     []model.MatchResult
	scopedDone bool
}

func (s *state) first() string  { return s.tokens[0] }
func (s *state) second() string { return s.tokens[1] }

func (s *state) known(name string) bool {
	return s.engine.dir.IsKnownProject(name)
}

func (s *state) search(query string, opts search.Options) []model.MatchResult {
	return search.Search(query, s.engine.dir.Records(), opts)
}

// scopedHits runs the two-token project search: exact match of the second
// token on name, id or ip inside the project named by the first token.
func (s *state) scopedHits() []model.MatchResult {
	if !s.scopedDone {
		s.scoped = s.search(s.second(), search.Options{
			Fields:  []string{model.FieldServerName, model.FieldServerID, model.FieldServerIP},
			Exact:   true,
			Project: s.first(),
		})
		s.scopedDone = true
	}
	return s.scoped
}

type rule struct {
	name  string
	guard func(*state) bool
	apply func(*state) model.Decision
}

func always(*state) bool { return true }

var searchRules = []rule{
	{
		name:  "search-project",
		guard: func(s *state) bool { return len(s.tokens) == 1 && s.known(s.first()) },
		apply: func(s *state) model.Decision {
			return list(s.search(s.first(), search.Options{
				Fields: []string{model.FieldProjectName},
				Exact:  true,
			}))
		},
	},
	{
		name:  "search-in-project",
		guard: func(s *state) bool { return len(s.tokens) == 2 && s.known(s.first()) },
		apply: func(s *state) model.Decision {
			return list(s.search(s.second(), search.Options{Project: s.first()}))
		},
	},
	{
		name:  "search-free",
		guard: always,
		apply: func(s *state) model.Decision {
			return list(s.search(strings.Join(s.tokens, " "), search.Options{}))
		},
	},
}

var goSingleRules = []rule{
	{
		name:  "server-id",
		guard: func(s *state) bool { return token.IsNumericID(s.first()) },
		apply: func(s *state) model.Decision {
			hits := s.search(s.first(), search.Options{
				Fields: []string{model.FieldServerID},
				Exact:  true,
			})
			if len(hits) == 1 {
				return connectRecord(model.ConnectByServerID, "", hits[0].Record)
			}
			return ambiguous(hits)
		},
	},
	{
		name:  "project",
		guard: func(s *state) bool { return s.known(s.first()) },
		apply: func(s *state) model.Decision {
			hits := s.search(s.first(), search.Options{
				Fields: []string{model.FieldProjectName},
				Exact:  true,
			})
			if len(hits) == 1 && s.engine.opts.Blind {
				return connectRecord(model.ConnectByServerID, s.first(), hits[0].Record)
			}
			return list(hits)
		},
	},
	{
		name:  "ipv4",
		guard: func(s *state) bool { return token.IsIPv4(s.first()) },
		apply: func(s *state) model.Decision { return connectLiteral(s.first(), "") },
	},
	{
		name:  "fqdn",
		guard: func(s *state) bool { return token.IsFQDN(s.first()) },
		apply: func(s *state) model.Decision { return connectLiteral(s.first(), "") },
	},
	{
		name:  "unrecognized",
		guard: always,
		apply: func(s *state) model.Decision {
			return invalid("", fmt.Sprintf("%q is not a server id, project, ip address or hostname", s.first()))
		},
	},
}

// In the two-token table the shape of the query token, not the field that
// matched, picks which resolved value is forwarded to the launcher.
var goPairRules = []rule{
	{
		name:  "unknown-project",
		guard: func(s *state) bool { return !s.known(s.first()) },
		apply: func(s *state) model.Decision {
			return invalid("", fmt.Sprintf("unknown project %q", s.first()))
		},
	},
	{
		name:  "project-server-id",
		guard: func(s *state) bool { return len(s.scopedHits()) == 1 && token.IsNumericID(s.second()) },
		apply: func(s *state) model.Decision { return connectScoped(s, model.ConnectByServerID) },
	},
	{
		name:  "project-server-ip",
		guard: func(s *state) bool { return len(s.scopedHits()) == 1 && token.IsIPv4(s.second()) },
		apply: func(s *state) model.Decision { return connectScoped(s, model.ConnectByServerIP) },
	},
	{
		name:  "project-fqdn",
		guard: func(s *state) bool { return len(s.scopedHits()) == 1 && token.IsFQDN(s.second()) },
		apply: func(s *state) model.Decision { return connectScoped(s, model.ConnectByFQDN) },
	},
	{
		name:  "project-server-name",
		guard: func(s *state) bool { return len(s.scopedHits()) == 1 },
		apply: func(s *state) model.Decision { return connectScoped(s, model.ConnectByServerName) },
	},
	{
		name: "project-dial-ipv4",
		guard: func(s *state) bool {
			return dialAnyway(s) && token.IsIPv4(s.second())
		},
		apply: func(s *state) model.Decision { return connectLiteral(s.second(), s.first()) },
	},
	{
		name: "project-dial-fqdn",
		guard: func(s *state) bool {
			return dialAnyway(s) && token.IsFQDN(s.second()) && !token.IsNumericID(s.second())
		},
		apply: func(s *state) model.Decision { return connectLiteral(s.second(), s.first()) },
	},
	{
		name:  "project-ambiguous",
		guard: always,
		apply: func(s *state) model.Decision { return ambiguous(s.scopedHits()) },
	},
}

func dialAnyway(s *state) bool {
	return len(s.scopedHits()) == 0 && len(s.second()) >= util.MinDialAnywayLength
}

func connectScoped(s *state, by model.ConnectBy) model.Decision {
	return connectRecord(by, s.first(), s.scopedHits()[0].Record)
}

func connectRecord(by model.ConnectBy, project string, rec model.HostRecord) model.Decision {
	if project == "" {
		project = rec.ProjectName
	}
	return model.Decision{
		Kind:   model.DecisionConnect,
		Target: &model.ConnectTarget{By: by, Project: project, Record: &rec},
	}
}

func connectLiteral(host, project string) model.Decision {
	return model.Decision{
		Kind:   model.DecisionConnect,
		Target: &model.ConnectTarget{By: model.ConnectByLiteral, Literal: host, Project: project},
	}
}

func list(hits []model.MatchResult) model.Decision {
	return model.Decision{Kind: model.DecisionAmbiguous, Matches: hits, Render: model.RenderList}
}

func ambiguous(hits []model.MatchResult) model.Decision {
	return model.Decision{Kind: model.DecisionAmbiguous, Matches: hits, Render: model.RenderAmbiguous}
}

func invalid(rule, reason string) model.Decision {
	return model.Decision{Kind: model.DecisionInvalidInput, Rule: rule, Reason: reason}
}
