package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comalice/sheetx/internal/scenario"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.yaml>...",
	Short: "Check scenario files against the overlay chart",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		invalid := 0
		for _, path := range args {
			s, err := scenario.Load(path)
			if err != nil {
				invalid++
				printError(w, err.Error())
				continue
			}
			printSuccess(w, fmt.Sprintf("%s (%d steps)", path, len(s.Steps)))
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d scenario(s) invalid", invalid, len(args))
		}
		return nil
	},
}
