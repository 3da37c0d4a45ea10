package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/treykane/auth-helper/internal/model"
)

// Launcher runs the external SSH wrapper for a descriptor. The helper never
// speaks SSH itself; the wrapper owns keys, proxies and auditing.
type Launcher struct {
	argv []string
}

// New splits wrapper on whitespace, e.g. "sudo -u auth /opt/auth/wrappers/ssh.py".
func New(wrapper string) *Launcher {
	return &Launcher{argv: strings.Fields(wrapper)}
}

// EnsureWrapper checks that the wrapper's executable can be found.
func (l *Launcher) EnsureWrapper() error {
	if len(l.argv) == 0 {
		return errors.New("ssh wrapper command is empty")
	}
	if _, err := exec.LookPath(l.argv[0]); err != nil {
		return fmt.Errorf("ssh wrapper %q not found: %w", l.argv[0], err)
	}
	return nil
}

// Command builds the wrapper command for d without starting it. The wrapper's
// own words come first, followed by Args(d):
//
//	sudo -u auth /opt/auth/wrappers/ssh.py 10.0.0.7 --port 2222 -A
func (l *Launcher) Command(ctx context.Context, d model.ConnectionDescriptor) (*exec.Cmd, error) {
	if len(l.argv) == 0 {
		return nil, errors.New("ssh wrapper command is empty")
	}
	args := append(append([]string(nil), l.argv[1:]...), Args(d)...)
	return exec.CommandContext(ctx, l.argv[0], args...), nil
}

// RunInteractive runs the wrapper inside a pty wired to the user's terminal
// and blocks until it exits.
//
// When stdin is a terminal it is switched to raw mode for the session so
// that keystrokes such as Ctrl-C reach the remote shell instead of this
// process. The previous terminal state is restored on return.
//
// The ctx parameter can be used to cancel the session. If the context is
// cancelled while the session is active, the wrapper process is killed.
func (l *Launcher) RunInteractive(ctx context.Context, d model.ConnectionDescriptor) error {
	cmd, err := l.Command(ctx, d)
	if err != nil {
		return err
	}

	// Start the wrapper inside a new pseudo-terminal; f is the master side.
	f, err := pty.Start(cmd)
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		// Give the pty the user's window size before anything is drawn.
		if err := pty.InheritSize(os.Stdin, f); err != nil {
			return fmt.Errorf("resize pty: %w", err)
		}
		state, err := term.MakeRaw(fd)
		if err != nil {
			return err
		}
		defer func() { _ = term.Restore(fd, state) }()
	}

	// Forward user input into the pty. io.Copy blocks until EOF, so this
	// runs in a goroutine that ends once the pty is closed.
	go func() {
		_, _ = io.Copy(f, os.Stdin)
	}()

	// Forward pty output to the terminal until the wrapper exits.
	_, _ = io.Copy(os.Stdout, f)

	if ctx.Err() != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	return cmd.Wait()
}
