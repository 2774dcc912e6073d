package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <line>...",
		Short: "Run command lines without the interactive shell",
		Long: `Each argument is one command line, run in order on the same shell.
Without arguments, lines are read from standard input. The command fails
when any line failed.`,
		Example: `  rscsh exec readers "connect 1" "select first hex a0000000031010" explain`,
		RunE:    a.runExec,
	}
}

func (a *app) runExec(cmd *cobra.Command, args []string) error {
	if err := a.startLogging(cmd.ErrOrStderr(), false); err != nil {
		return err
	}
	defer a.stopLogging()

	sh, err := a.newShell()
	if err != nil {
		return err
	}
	defer sh.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		return lineLoop(sh, cmd.InOrStdin(), out, false)
	}

	failed := 0
	for _, line := range args {
		text, exit, err := turn(sh, line)
		fmt.Fprint(out, text)
		if err != nil {
			failed++
		}
		if exit {
			break
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d lines failed", failed, len(args))
	}
	return nil
}
