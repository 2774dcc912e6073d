// Package cli defines the rscsh command line: the interactive shell, the
// batch exec mode and the configuration helpers.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gregLibert/smart-card-shell/pkg/config"
	"github.com/gregLibert/smart-card-shell/pkg/i18n"
	"github.com/gregLibert/smart-card-shell/pkg/logging"
	"github.com/gregLibert/smart-card-shell/pkg/shell"
	"github.com/gregLibert/smart-card-shell/pkg/tlv"
	"github.com/gregLibert/smart-card-shell/pkg/transport"
	"github.com/gregLibert/smart-card-shell/pkg/transport/pcsc"
	"github.com/gregLibert/smart-card-shell/pkg/transport/pcscd"
)

type app struct {
	version string
	cfgFile string
	cfg     config.Config

	log       zerolog.Logger
	logCloser io.Closer

	// open overrides the configured backend.
	open transport.Opener
}

// NewRootCmd builds the command tree. Running without a subcommand starts
// the interactive shell.
func NewRootCmd(version string) *cobra.Command {
	return (&app{version: version}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rscsh",
		Short: "rscsh is an interactive shell for ISO 7816 smart cards.",
		Long: `rscsh talks to smart cards through PC/SC. Type hex bytes to send a
command APDU, or use the verbs listed by "help": readers, connect, select,
parse, dump, crypto and more.

Running without a subcommand starts the interactive shell.`,
		Version:           a.version,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE:              a.runShell,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is rscsh.yaml in the user config directory or the working directory)")
	flags.String("backend", config.BackendPCSC, `card backend ("pcsc" or "pcscd")`)
	flags.String("pcscd-socket", "", "pcscd socket path (pcscd backend)")
	flags.String("pcscd-scope", "system", `pcscd context scope ("user" or "system")`)
	flags.String("log-level", "warn", "diagnostics level (trace, debug, info, warn, error, disabled)")
	flags.String("log-file", "", "write diagnostics to this file")
	flags.String("lang", "en", `help language ("en", "fr")`)
	flags.String("tags", "", "TOML file of extra TLV tag names")
	flags.String("ui", config.UIAuto, `front end ("auto", "tui" or "line")`)
	flags.Bool("monitor", true, "report card insertion and removal")

	cmd.AddCommand(a.shellCmd(), a.execCmd(), a.configCmd(), a.versionCmd())
	return cmd
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// startLogging opens the diagnostics logger. The full screen front end owns
// the terminal, so its diagnostics default to a file.
func (a *app) startLogging(stderr io.Writer, fullScreen bool) error {
	file := a.cfg.Log.File
	if file == "" && fullScreen {
		if dir, err := os.UserCacheDir(); err == nil {
			file = filepath.Join(dir, config.Name, config.Name+".log")
		}
	}

	out := stderr
	if file == "" && fullScreen {
		out = io.Discard
	}
	log, closer, err := logging.New(logging.Options{
		Level: a.cfg.Log.Level,
		File:  file,
		Out:   out,
		App:   config.Name,
	})
	if err != nil {
		return err
	}
	a.log, a.logCloser = log, closer
	return nil
}

func (a *app) stopLogging() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func (a *app) opener() (transport.Opener, error) {
	if a.open != nil {
		return a.open, nil
	}
	switch a.cfg.Backend {
	case config.BackendPCSC:
		return pcsc.Opener(a.log), nil
	case config.BackendPCSCD:
		scope, err := pcscd.ParseScope(a.cfg.PCSCD.Scope)
		if err != nil {
			return nil, err
		}
		return pcscd.Opener(a.cfg.PCSCD.Socket, scope, a.log), nil
	}
	return nil, fmt.Errorf("unknown backend %q", a.cfg.Backend)
}

func (a *app) newShell() (*shell.Shell, error) {
	catalog, err := i18n.New(a.cfg.Language)
	if err != nil {
		return nil, err
	}

	tags := tlv.DefaultDictionary()
	if a.cfg.Tags.File != "" {
		if tags, err = tlv.LoadDictionary(a.cfg.Tags.File); err != nil {
			return nil, fmt.Errorf("loading tag names: %w", err)
		}
	}

	open, err := a.opener()
	if err != nil {
		return nil, err
	}

	a.log.Debug().
		Str("backend", a.cfg.Backend).
		Str("language", catalog.Language().String()).
		Int("tags", len(tags)).
		Msg("shell ready")

	return shell.New(shell.Options{
		Open:    open,
		Help:    catalog,
		Tags:    tags,
		Logger:  a.log,
		Version: a.version,
	}), nil
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), a.version)
		},
	}
}
