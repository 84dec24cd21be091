package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/smazurov/blinkd/internal/configstore"
)

// CreateConfigCmd creates the config command group.
func CreateConfigCmd() *cobra.Command {
	var storeBackend, storeDir string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration store",
	}
	cmd.PersistentFlags().StringVar(&storeBackend, "store-backend", configstore.BackendUCI, "Configuration store backend (uci, toml)")
	cmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Configuration store directory (default depends on backend)")

	get := &cobra.Command{
		Use:     "get <package.section.option>",
		Short:   "Print a value from the configuration store",
		Example: "  blinkd config get blink.globals.interval\n  blinkd config get blink.@globals[0].interval",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			store, err := configstore.New(storeBackend, storeDir)
			if err != nil {
				return err
			}
			return printOption(c.OutOrStdout(), store, args[0])
		},
	}
	get.SilenceUsage = true

	cmd.AddCommand(get)
	return cmd
}

// printOption writes a single value on one line, or one line per list item.
func printOption(w io.Writer, store configstore.Store, path string) error {
	p, err := configstore.ParsePath(path)
	if err != nil {
		return err
	}
	opt, err := store.Get(p)
	if err != nil {
		return err
	}
	for _, v := range opt.Values {
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}
