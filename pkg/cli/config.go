package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gregLibert/smart-card-shell/pkg/config"
)

func (a *app) configCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			if !write {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			path := a.cfgFile
			if path == "" {
				if path, err = config.Path(); err != nil {
					return err
				}
			}
			if err := config.Write(a.cfg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "write the configuration file instead of printing it")
	return cmd
}
