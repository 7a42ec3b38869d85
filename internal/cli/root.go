package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/comalice/sheetx"
	"github.com/comalice/sheetx/internal/config"
)

var (
	// Global flags
	initialState string
	snapshotDir  string
	registryDB   string
	verbose      bool

	cfg config.Config
)

// rootCmd is the root command for sheetctl.
var rootCmd = &cobra.Command{
	Use:     "sheetctl",
	Version: "dev",
	Short:   "Bottom sheet lifecycle controller tooling",
	Long: `sheetctl drives the sheetx overlay controller from the command line.

It replays scripted gesture sessions against a simulated host, validates
scenario files, renders the overlay chart and inspects recorded snapshots.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func SetVersion(v string) {
	if v == "" {
		return
	}
	rootCmd.Version = v
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// loadConfig reads the environment, then applies flags that were set.
func loadConfig(cmd *cobra.Command) error {
	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("initial-state") {
		cfg.InitialState = initialState
	}
	if flags.Changed("snapshot-dir") {
		cfg.SnapshotDir = snapshotDir
	}
	if flags.Changed("registry-db") {
		cfg.RegistryDB = registryDB
	}
	return cfg.Validate()
}

func logger(cmd *cobra.Command) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(cmd.ErrOrStderr(), "sheetx: ", log.Lmicroseconds)
}

// newController builds a controller with no sinks for chart inspection.
func newController(cmd *cobra.Command) (*sheetx.Controller, error) {
	initial, err := sheetx.ParseInitialState(cfg.InitialState)
	if err != nil {
		return nil, err
	}
	return sheetx.New(nil, sheetx.WithLogger(logger(cmd)), sheetx.WithInitialState(initial))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&initialState, "initial-state", "", "OPEN or CLOSED (default $SHEETX_INITIAL_STATE)")
	rootCmd.PersistentFlags().StringVar(&snapshotDir, "snapshot-dir", "", "Persist snapshots here (default $SHEETX_SNAPSHOT_DIR)")
	rootCmd.PersistentFlags().StringVar(&registryDB, "registry-db", "", "SQLite snapshot registry (default $SHEETX_REGISTRY_DB)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log controller activity to stderr")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the sheetctl version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), rootCmd.Version)
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(dotCmd)
	rootCmd.AddCommand(jsonCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
