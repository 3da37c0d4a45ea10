package security

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/treykane/auth-helper/internal/appconfig"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Finding struct {
	Severity       Severity `json:"severity"`
	Target         string   `json:"target"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

type AuditReport struct {
	Findings []Finding `json:"findings"`
}

func (r AuditReport) HasHigh() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityHigh {
			return true
		}
	}
	return false
}

// RunLocalAudit inspects the file posture of the helper's config, secrets,
// journal and session file.
func RunLocalAudit(cfg appconfig.Config) AuditReport {
	var findings []Finding

	cfgDir, err := appconfig.ConfigDir()
	if err == nil {
		checkPathPerm(&findings, cfgDir, 0o700, false)
		checkPathPerm(&findings, filepath.Join(cfgDir, "config.yaml"), 0o600, true)
		checkPathPerm(&findings, filepath.Join(cfgDir, ".env"), 0o600, true)
		checkPathPerm(&findings, filepath.Join(cfgDir, "journal.jsonl"), 0o600, true)
	}
	if strings.TrimSpace(cfg.DataRoot) != "" {
		checkPathPerm(&findings, filepath.Join(cfg.DataRoot, ".env"), 0o600, true)
	}

	if cfg.SessionFile != "" {
		// The calling shell sources this file, so anyone who can write it
		// can run commands as the user.
		if st, err := os.Stat(cfg.SessionFile); err == nil && st.Mode().Perm()&0o022 != 0 {
			findings = append(findings, Finding{
				Severity:       SeverityHigh,
				Target:         cfg.SessionFile,
				Message:        fmt.Sprintf("session file is writable by others (%#o)", st.Mode().Perm()),
				Recommendation: "remove the file; it is recreated with mode 0600 on the next go",
			})
		}
	}

	if cfg.Directory.Backend == appconfig.BackendRedis && cfg.Directory.Redis.Password != "" {
		if path, err := appconfig.ConfigFilePath(); err == nil && fileMentions(path, cfg.Directory.Redis.Password) {
			findings = append(findings, Finding{
				Severity:       SeverityMedium,
				Target:         "config.yaml",
				Message:        "redis password is stored in config.yaml",
				Recommendation: "move it to AUTH_REDIS_PASS in a 0600 .env file",
			})
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Severity != findings[j].Severity {
			return severityRank(findings[i].Severity) > severityRank(findings[j].Severity)
		}
		if findings[i].Target != findings[j].Target {
			return findings[i].Target < findings[j].Target
		}
		return findings[i].Message < findings[j].Message
	})
	return AuditReport{Findings: findings}
}

func fileMentions(path, secret string) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(b), secret)
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

func checkPathPerm(findings *[]Finding, path string, max os.FileMode, isFile bool) {
	st, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		*findings = append(*findings, Finding{
			Severity:       SeverityLow,
			Target:         path,
			Message:        fmt.Sprintf("unable to inspect permissions: %v", err),
			Recommendation: "verify path and permissions manually",
		})
		return
	}
	mode := st.Mode().Perm()
	if mode&^max != 0 {
		kind := "directory"
		if isFile {
			kind = "file"
		}
		*findings = append(*findings, Finding{
			Severity:       SeverityMedium,
			Target:         path,
			Message:        fmt.Sprintf("%s permissions are too broad (%#o)", kind, mode),
			Recommendation: fmt.Sprintf("restrict permissions to %#o or tighter", max),
		})
	}
}
