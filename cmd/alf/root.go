package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/alf"
	"github.com/aretw0/alf/internal/cli"
	"github.com/aretw0/alf/internal/logging"
	"github.com/aretw0/alf/pkg/table"
	"github.com/spf13/cobra"
)

var (
	cfg    cli.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "alf",
	Short: "alf is an active automata learner",
	Long: `alf learns regular languages from membership and equivalence queries,
as a deterministic (L*) or residual nondeterministic (NL*) automaton.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		v, err := cli.InitViper(configFile)
		if err != nil {
			return err
		}
		if err := cli.BindFlags(v, cmd); err != nil {
			return err
		}
		if cfg, err = cli.Load(v); err != nil {
			return err
		}
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = logging.New(level)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// learnerOptions maps the configuration onto learner options.
func learnerOptions() []alf.Option {
	policy, _ := table.PolicyByName(cfg.Mode)
	return []alf.Option{
		alf.WithLogger(logger),
		alf.WithPolicy(policy),
		alf.WithBatchMode(cfg.Batch),
		alf.WithMaxRounds(cfg.MaxRounds),
	}
}

func init() {
	d := cli.Defaults()
	// Persistent flags (available to all commands)
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default ./alf.yaml or ./.alf/alf.yaml)")
	pf.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	pf.String("mode", d.Mode, "Covers policy: equality (L*) or covering (NL*)")
	pf.Bool("batch", d.Batch, "Exchange membership queries as serialized query trees")
	pf.Int("max-rounds", d.MaxRounds, "Maximum number of equivalence queries (0 means unbounded)")
	pf.String("store", d.Store, "Session store: memory, file or redis")
	pf.String("store-dir", d.StoreDir, "Directory of the file store")
	pf.String("redis-addr", d.RedisAddr, "Redis address of the redis store")
	pf.String("redis-prefix", d.RedisPrefix, "Key prefix of the redis store")
	pf.String("encryption-key", d.EncryptionKey, "Encrypt stored sessions with this 32-byte key (hex or base64)")
}
