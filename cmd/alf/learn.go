package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/alf"
	"github.com/aretw0/alf/internal/cli"
	"github.com/aretw0/alf/internal/presentation/tui"
	"github.com/aretw0/alf/pkg/adapters/oracle"
	"github.com/aretw0/alf/pkg/adapters/process"
	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/ports"
	"github.com/aretw0/alf/pkg/session"
	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn <automaton-file>",
	Short: "Learn the language of a target automaton",
	Long: `Loads a target automaton (YAML or JSON) and learns it from scratch, answering
membership and equivalence queries from the target. With --save the learner is
persisted as a session in the configured store. With --membership-process the
membership queries go to an external program instead, which receives each
serialized query tree on stdin and answers with an acceptance stream on stdout;
the automaton file then only serves equivalence queries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := oracle.Load(args[0])
		if err != nil {
			return err
		}
		o, err := oracle.New(target)
		if err != nil {
			return err
		}
		var m ports.MembershipOracle = o
		if path, _ := cmd.Flags().GetString("membership-process"); path != "" {
			pcfg, err := process.LoadConfig(path)
			if err != nil {
				return err
			}
			if m, err = process.New(pcfg, process.WithLogger(logger)); err != nil {
				return err
			}
		}
		save, _ := cmd.Flags().GetBool("save")
		out, _ := cmd.Flags().GetString("out")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		if !quiet {
			tui.PrintBanner(cmd.OutOrStdout())
		}

		var (
			conj    *domain.Automaton
			summary tui.Summary
			runErr  error
		)
		record := func(l *alf.Learner) {
			summary = tui.Summary{
				Mode:      l.Mode(),
				Rounds:    l.Round(),
				Knowledge: l.Knowledge().Stats(),
				Table:     l.Table().Stats(),
			}
		}

		if save {
			mgr, closer, err := cli.NewManager(cfg,
				session.WithLogger(logger),
				session.WithLearnerOptions(learnerOptions()...),
			)
			if err != nil {
				return err
			}
			defer closer.Close()

			id, err := mgr.Create(ctx, target.AlphabetSize, cfg.Mode)
			if err != nil {
				return err
			}
			runErr = mgr.Update(ctx, id, func(ctx context.Context, l *alf.Learner) error {
				var err error
				conj, err = l.Run(ctx, m, o)
				record(l)
				return err
			})
			if runErr == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "session %s saved\n", id)
			}
		} else {
			l := alf.New(target.AlphabetSize, learnerOptions()...)
			conj, runErr = l.Run(ctx, m, o)
			record(l)
		}

		if errors.Is(runErr, context.Canceled) && ctx.Signal() != nil {
			logger.Warn("learning interrupted", "signal", ctx.Signal().String())
		}
		summary.Conjecture = conj
		summary.Err = runErr
		if !quiet {
			tui.PrintSummary(cmd.OutOrStdout(), summary)
		}

		if conj != nil && out != "" {
			data, err := json.MarshalIndent(conj, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0644); err != nil {
				return fmt.Errorf("writing conjecture: %w", err)
			}
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(learnCmd)
	learnCmd.Flags().Bool("save", false, "Persist the learner as a session")
	learnCmd.Flags().StringP("out", "o", "", "Write the learned automaton as JSON to this file")
	learnCmd.Flags().String("membership-process", "", "Oracle program config (YAML or JSON) answering membership queries")
	learnCmd.Flags().BoolP("quiet", "q", false, "Suppress the banner and summary")
}
