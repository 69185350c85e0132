package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/alf"
	"github.com/aretw0/alf/internal/cli"
	"github.com/aretw0/alf/internal/presentation/tui"
	"github.com/aretw0/alf/pkg/session"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persistent learning sessions",
	Long:  `List and remove learning sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closer, err := cli.NewManager(cfg, session.WithLogger(logger))
		if err != nil {
			return err
		}
		defer closer.Close()

		ids, err := mgr.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Sessions:")
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
		}
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args: func(cmd *cobra.Command, args []string) error {
		if all, _ := cmd.Flags().GetBool("all"); all {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, closer, err := cli.NewManager(cfg, session.WithLogger(logger))
		if err != nil {
			return err
		}
		defer closer.Close()

		if all, _ := cmd.Flags().GetBool("all"); all {
			ids, err := mgr.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			args = ids
		}

		failed := 0
		for _, id := range args {
			if err := mgr.Delete(cmd.Context(), id); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", id, err)
				failed++
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", id)
		}
		if failed > 0 {
			return fmt.Errorf("%d sessions could not be removed", failed)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Long: `Restores a session and prints its knowledge and table statistics, the
pending membership queries and, when the table is ready, the conjecture.
The report is JSON unless --markdown is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		raw, _ := cmd.Flags().GetBool("raw")
		markdown, _ := cmd.Flags().GetBool("markdown")
		mgr, closer, err := cli.NewManager(cfg, session.WithLogger(logger))
		if err != nil {
			return err
		}
		defer closer.Close()

		var (
			out any
			rep *tui.Report
		)
		if raw {
			snap, err := mgr.Load(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("loading session '%s': %w", id, err)
			}
			out = snap
		} else {
			err := mgr.View(cmd.Context(), id, func(ctx context.Context, l *alf.Learner) error {
				var err error
				rep, err = report(ctx, id, l)
				out = rep
				return err
			})
			if err != nil {
				return fmt.Errorf("inspecting session '%s': %w", id, err)
			}
		}

		if markdown && rep != nil {
			rendered, err := tui.NewRenderer(cmd.OutOrStdout())(rep.Markdown())
			if err != nil {
				return fmt.Errorf("rendering report: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		}

		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func report(ctx context.Context, id string, l *alf.Learner) (*tui.Report, error) {
	status, err := l.Advance(ctx)
	if err != nil {
		return nil, err
	}
	r := &tui.Report{
		ID:              id,
		Mode:            l.Mode(),
		Status:          status.String(),
		Round:           l.Round(),
		Knowledge:       l.Knowledge().Stats(),
		Table:           l.Table().Stats(),
		Counterexamples: l.Counterexamples(),
		PendingQueries:  []string{},
	}
	for _, c := range l.Table().Columns() {
		r.Columns = append(r.Columns, c.String())
	}
	for _, w := range l.PendingWords() {
		r.PendingQueries = append(r.PendingQueries, w.String())
	}
	if status == alf.StatusConjectureReady {
		if r.Conjecture, err = l.Conjecture(ctx); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionRmCmd.Flags().Bool("all", false, "Remove every session")

	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("raw", false, "Print the stored snapshot instead of a report")
	inspectCmd.Flags().Bool("markdown", false, "Render the report as markdown")
}
