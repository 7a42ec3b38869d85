package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/comalice/sheetx"
)

var historyID string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List registered snapshot versions",
	Long: `List the snapshot versions recorded in the registry database. Without --id
the controllers that have versions are listed instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.RegistryDB == "" {
			return errors.New("no registry db configured")
		}
		ctx := cmd.Context()
		reg, err := sheetx.OpenSQLiteRegistry(ctx, cfg.RegistryDB)
		if err != nil {
			return err
		}
		defer reg.Close()

		w := cmd.OutOrStdout()
		if historyID == "" {
			ids, err := reg.ListMachines(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, len(ids))
			for i, id := range ids {
				rows[i] = []string{id}
			}
			printTable(w, []string{"CONTROLLER"}, rows)
			return nil
		}

		versions, err := reg.ListVersions(ctx, historyID)
		if err != nil {
			return err
		}
		if len(versions) == 0 {
			return fmt.Errorf("%s: %w", historyID, sheetx.ErrNotFound)
		}
		rows := make([][]string, 0, len(versions))
		for _, v := range versions {
			snap, err := reg.Version(ctx, historyID, v)
			if err != nil {
				return err
			}
			rows = append(rows, []string{v, snap.Current, snap.Timestamp.Format(time.RFC3339Nano)})
		}
		printSection(w, historyID)
		printTable(w, []string{"VERSION", "PHASE", "TIME"}, rows)
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyID, "id", "", "Controller id")
}
