// Package launch turns Connect decisions into a ConnectionDescriptor and
// hands it to the external SSH wrapper, either through a session file read
// by the calling shell or by running the wrapper directly.
package launch

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/treykane/auth-helper/internal/model"
)

// Build maps a resolved target onto a descriptor. Optional record fields are
// copied only when present; extra args are copied verbatim.
//
// The host is the record field named by the connect kind: server_ip for
// ConnectByServerIP, server_name for ConnectByFQDN and ConnectByServerName.
// ConnectByServerID names no address field and uses server_ip. A missing
// field falls back to server_ip, then server_name, then server_id, so the
// host is never empty for a record target.
func Build(target model.ConnectTarget, extra []string) model.ConnectionDescriptor {
	d := model.ConnectionDescriptor{Project: target.Project}
	rec := target.Record

	switch {
	case target.By == model.ConnectByLiteral || rec == nil:
		d.Host = target.Literal
	case target.By == model.ConnectByFQDN || target.By == model.ConnectByServerName:
		d.Host = firstNonEmpty(rec.ServerName, rec.ServerIP, rec.ServerID)
	default:
		d.Host = firstNonEmpty(rec.ServerIP, rec.ServerName, rec.ServerID)
	}

	if rec != nil {
		d.ServerID = rec.ServerID
		d.Port = rec.ServerPort
		d.User = rec.ServerUser
		d.NoSudo = rec.ServerNoSudo
		d.ProxyID = rec.ProxyID
	}
	if len(extra) > 0 {
		d.ExtraArgs = append([]string(nil), extra...)
	}
	return d
}

// Args returns the wrapper arguments for d: host, structured flags, then
// the pass-through args.
func Args(d model.ConnectionDescriptor) []string {
	var args []string
	if d.Host != "" {
		args = append(args, d.Host)
	}
	if d.Port > 0 {
		args = append(args, "--port", strconv.Itoa(d.Port))
	}
	if d.User != "" {
		args = append(args, "--user", d.User)
	}
	if d.NoSudo {
		args = append(args, "--nosudo")
	}
	return append(args, d.ExtraArgs...)
}

// CommandLine renders the full wrapper invocation as one shell string.
//
// Example: "sudo -u auth /opt/auth/wrappers/ssh.py 10.0.0.7 --port 2222 --user deploy -v"
func CommandLine(wrapper string, d model.ConnectionDescriptor) string {
	parts := []string{strings.TrimSpace(wrapper)}
	for _, a := range Args(d) {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

var shellSafe = regexp.MustCompile(`^[\w@%+=:,./-]+$`)

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
