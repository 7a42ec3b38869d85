package cli

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/comalice/sheetx"
	"github.com/comalice/sheetx/internal/scenario"
	"github.com/comalice/sheetx/internal/telemetry"
)

var (
	runWatch bool
	runDelay time.Duration
	runID    string
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Replay a scenario against a simulated host and print its trace",
	Long: `Replay a scenario script against a controller whose effects each take the
configured delay. With --watch the scenario reruns whenever the file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		tp, shutdown, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()

		delay := cfg.EffectDelay
		if cmd.Flags().Changed("delay") {
			delay = runDelay
		}
		once := func() error {
			script, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			opts, closeFn, err := cfg.Options(ctx, logger(cmd))
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()
			if cfg.OTelEndpoint != "" {
				opts = append(opts, sheetx.WithTracing(tp))
			}
			if runID != "" {
				opts = append(opts, sheetx.WithID(runID))
			}
			if verbose {
				opts = append(opts, sheetx.WithEffectLogging(), sheetx.WithActionLogging())
			}

			res, err := scenario.Run(ctx, script, delay, opts...)
			if res != nil {
				printTrace(cmd.OutOrStdout(), res)
			}
			return err
		}

		if !runWatch {
			return once()
		}
		return scenario.Watch(ctx, args[0], func() {
			if err := once(); err != nil {
				printError(cmd.ErrOrStderr(), err.Error())
			}
		})
	},
}

func init() {
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "Rerun when the scenario file changes")
	runCmd.Flags().DurationVar(&runDelay, "delay", 0, "Effect delay when the script sets none (default $SHEETX_EFFECT_DELAY)")
	runCmd.Flags().StringVar(&runID, "id", "", "Controller id for snapshots (default random)")
}
