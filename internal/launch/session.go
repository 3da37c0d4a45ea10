package launch

import (
	"fmt"
	"os"
	"strings"

	"github.com/treykane/auth-helper/internal/model"
)

// SessionLines returns the key="value" exports the calling shell sources
// after the helper exits.
func SessionLines(path, cmdline string, d model.ConnectionDescriptor) []string {
	lines := []string{fmt.Sprintf("AUTH_CALLBACK=%s;", quoteValue(path))}
	if d.ProxyID != "" {
		lines = append(lines, fmt.Sprintf("AUTH_PROXY_ID=%s;", quoteValue(d.ProxyID)))
	}
	return append(lines, fmt.Sprintf("AUTH_CALLBACK_CMD=%s", quoteValue(cmdline)))
}

// WriteSession replaces the session file at path with the exports for d.
func WriteSession(path, cmdline string, d model.ConnectionDescriptor) error {
	body := strings.Join(SessionLines(path, cmdline, d), "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

func quoteValue(v string) string {
	return `"` + valueEscaper.Replace(v) + `"`
}
