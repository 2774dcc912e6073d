package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gregLibert/smart-card-shell/pkg/config"
	"github.com/gregLibert/smart-card-shell/pkg/shell"
	"github.com/gregLibert/smart-card-shell/pkg/transport"
	"github.com/gregLibert/smart-card-shell/pkg/tui"
)

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell (default command)",
		Args:  cobra.NoArgs,
		RunE:  a.runShell,
	}
}

func (a *app) runShell(cmd *cobra.Command, _ []string) error {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	fullScreen := a.useTUI(in, out)

	if err := a.startLogging(cmd.ErrOrStderr(), fullScreen); err != nil {
		return err
	}
	defer a.stopLogging()

	sh, err := a.newShell()
	if err != nil {
		return err
	}
	defer func() {
		if err := sh.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing the card transport")
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !fullScreen {
		out := &lockedWriter{w: out}
		notify := func() { fmt.Fprint(out, sh.Drain()) }
		a.startMonitor(ctx, sh, notify)
		return lineLoop(sh, in, out, isTerminal(in))
	}

	p := tui.NewProgram(sh, in, out)
	a.startMonitor(ctx, sh, p.Refresh)
	return p.Run()
}

// useTUI applies ui.mode; auto picks the full screen front end when both
// ends are terminals.
func (a *app) useTUI(in io.Reader, out io.Writer) bool {
	switch a.cfg.UI.Mode {
	case config.UITUI:
		return true
	case config.UILine:
		return false
	}
	return isTerminal(in) && isTerminal(out)
}

// lockedWriter serializes the line loop and the reader monitor.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// startMonitor reports card movements on a second transport context until
// ctx is done. Backends that cannot watch are skipped.
func (a *app) startMonitor(ctx context.Context, sh *shell.Shell, notify func()) {
	if !a.cfg.Monitor {
		return
	}
	open, err := a.opener()
	if err != nil {
		return
	}

	go func() {
		tc, err := open()
		if err != nil {
			a.log.Debug().Err(err).Msg("monitor disabled")
			return
		}
		defer tc.Release()

		w, ok := tc.(transport.Watcher)
		if !ok {
			a.log.Debug().Str("backend", a.cfg.Backend).Msg("backend cannot monitor readers")
			return
		}
		readers, err := tc.ListReaders()
		if err != nil {
			a.log.Debug().Err(err).Msg("monitor disabled")
			return
		}

		a.log.Debug().Strs("readers", readers).Msg("monitoring readers")
		err = w.Watch(ctx, readers, func(ev transport.Event) {
			sh.HandleEvent(ev)
			notify()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			a.log.Warn().Err(err).Msg("reader monitor stopped")
		}
	}()
}

// lineLoop reads one command per line until exit or end of input. Errors
// are printed and the loop goes on.
func lineLoop(sh *shell.Shell, in io.Reader, out io.Writer, prompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprint(out, "rscsh> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		text, exit, _ := turn(sh, scanner.Text())
		fmt.Fprint(out, text)
		if exit {
			return nil
		}
	}
}

// turn runs line and returns what the host prints for it. This is the only
// place where command errors are caught.
func turn(sh *shell.Shell, line string) (string, bool, error) {
	res, text, err := sh.Turn(line)
	if err != nil {
		text += fmt.Sprintf("Error: %v\n", err)
	}
	return text, res.Exit, err
}
