package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var dotID string

var dotCmd = &cobra.Command{
	Use:   "dot",
	Short: "Render the overlay chart as Graphviz DOT",
	Long: `Render the overlay chart as Graphviz DOT with the active phase highlighted.
With --id the phase comes from that controller's persisted snapshot.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := newController(cmd)
		if err != nil {
			return err
		}
		if dotID != "" {
			p, err := cfg.Persister()
			if err != nil {
				return err
			}
			if p == nil {
				return errors.New("--id needs a snapshot dir")
			}
			snap, err := p.Load(ctx, dotID)
			if err != nil {
				return fmt.Errorf("load snapshot %s: %w", dotID, err)
			}
			if err := c.Restore(snap); err != nil {
				return err
			}
		}
		if err := c.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = c.Stop() }()

		_, err = fmt.Fprint(cmd.OutOrStdout(), c.DOT())
		return err
	},
}

var jsonCmd = &cobra.Command{
	Use:   "json",
	Short: "Print the overlay chart definition as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newController(cmd)
		if err != nil {
			return err
		}
		data, err := c.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	dotCmd.Flags().StringVar(&dotID, "id", "", "Highlight the persisted phase of this controller")
}
