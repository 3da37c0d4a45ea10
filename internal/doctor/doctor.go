package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/treykane/auth-helper/internal/appconfig"
	"github.com/treykane/auth-helper/internal/directory"
	"github.com/treykane/auth-helper/internal/launch"
	"github.com/treykane/auth-helper/internal/security"
	"github.com/treykane/auth-helper/internal/util"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	Severity       Severity `json:"severity"`
	Check          string   `json:"check"`
	Target         string   `json:"target"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type Report struct {
	Records  int     `json:"records"`
	Projects int     `json:"projects"`
	Issues   []Issue `json:"issues"`
}

// Run executes local diagnostics for the helper: wrapper, session file,
// host directory and file permissions.
func Run(ctx context.Context, cfg appconfig.Config) Report {
	var (
		report Report
		issues []Issue
	)

	if err := launch.New(cfg.Wrapper).EnsureWrapper(); err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "ssh-wrapper",
			Target:         util.DefaultString(cfg.Wrapper, "wrapper"),
			Message:        err.Error(),
			Recommendation: "install the ssh wrapper or point AUTH_WRAPPER at it",
		})
	}

	if cfg.SessionFile != "" {
		if err := checkWritableDir(filepath.Dir(cfg.SessionFile)); err != nil {
			issues = append(issues, Issue{
				Severity:       SeverityHigh,
				Check:          "session-dir",
				Target:         cfg.SessionFile,
				Message:        err.Error(),
				Recommendation: "create the directory or change AUTH_SESSION",
			})
		}
	}

	dir, err := directory.LoadConfig(ctx, cfg.Directory)
	if err != nil {
		issues = append(issues, Issue{
			Severity:       SeverityHigh,
			Check:          "directory-load",
			Target:         cfg.Directory.Backend,
			Message:        security.DebugMessage(err),
			Recommendation: "check the directory backend settings and that the store is reachable",
		})
	} else {
		report.Records = dir.Len()
		report.Projects = len(dir.Projects())
		for _, w := range dir.Warnings() {
			issues = append(issues, Issue{
				Severity:       SeverityMedium,
				Check:          "directory-warning",
				Target:         cfg.Directory.Backend,
				Message:        w,
				Recommendation: "fix or remove the malformed host record",
			})
		}
		issues = append(issues, proxyIssues(dir)...)
		if dir.Len() == 0 {
			issues = append(issues, Issue{
				Severity:       SeverityLow,
				Check:          "directory-empty",
				Target:         cfg.Directory.Backend,
				Message:        "host directory has no records",
				Recommendation: "only literal addresses can be dialed until records are loaded",
			})
		}
	}

	for _, f := range security.RunLocalAudit(cfg).Findings {
		sev := SeverityLow
		if f.Severity == security.SeverityMedium {
			sev = SeverityMedium
		}
		if f.Severity == security.SeverityHigh {
			sev = SeverityHigh
		}
		issues = append(issues, Issue{
			Severity:       sev,
			Check:          "security-audit",
			Target:         f.Target,
			Message:        f.Message,
			Recommendation: f.Recommendation,
		})
	}

	sort.Slice(issues, func(i, j int) bool {
		ri := severityRank(issues[i].Severity)
		rj := severityRank(issues[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if issues[i].Check != issues[j].Check {
			return issues[i].Check < issues[j].Check
		}
		if issues[i].Target != issues[j].Target {
			return issues[i].Target < issues[j].Target
		}
		return issues[i].Message < issues[j].Message
	})
	if issues == nil {
		issues = []Issue{}
	}
	report.Issues = issues
	return report
}

// proxyIssues flags records whose proxy_id names no server in the directory.
func proxyIssues(dir *directory.Directory) []Issue {
	var issues []Issue
	for _, r := range dir.Records() {
		if r.ProxyID == "" {
			continue
		}
		if _, ok := dir.ByServerID(r.ProxyID); ok {
			continue
		}
		issues = append(issues, Issue{
			Severity:       SeverityLow,
			Check:          "directory-proxy",
			Target:         r.ServerID,
			Message:        fmt.Sprintf("proxy_id %s is not a known server_id", r.ProxyID),
			Recommendation: "fix the proxy_id or add the proxy host to the directory",
		})
	}
	return issues
}

// HasHigh reports whether any issue blocks normal operation.
func (r Report) HasHigh() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

func checkWritableDir(dir string) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".auth-helper-doctor-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func severityRank(s Severity) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	default:
		return 1
	}
}
