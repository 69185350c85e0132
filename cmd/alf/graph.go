package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/alf"
	"github.com/aretw0/alf/internal/cli"
	"github.com/aretw0/alf/internal/presentation/graph"
	"github.com/aretw0/alf/pkg/adapters/oracle"
	"github.com/aretw0/alf/pkg/domain"
	"github.com/aretw0/alf/pkg/session"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [automaton-file]",
	Short: "Export an automaton as a Mermaid diagram",
	Long: `Outputs a Mermaid diagram (graph LR) of an automaton file or, with --session,
of the current conjecture of a learning session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		trace, _ := cmd.Flags().GetString("trace")
		symbols, _ := cmd.Flags().GetString("symbols")

		var a *domain.Automaton
		switch {
		case sessionID != "":
			mgr, closer, err := cli.NewManager(cfg, session.WithLogger(logger))
			if err != nil {
				return err
			}
			defer closer.Close()
			err = mgr.View(cmd.Context(), sessionID, func(ctx context.Context, l *alf.Learner) error {
				if _, err := l.Advance(ctx); err != nil {
					return err
				}
				var err error
				a, err = l.Conjecture(ctx)
				return err
			})
			if err != nil {
				return fmt.Errorf("session '%s': %w", sessionID, err)
			}
		case len(args) == 1:
			var err error
			if a, err = oracle.Load(args[0]); err != nil {
				return err
			}
		default:
			return errors.New("an automaton file or --session is required")
		}

		var overlay *graph.GraphOverlay
		if cmd.Flags().Changed("trace") || symbols != "" {
			overlay = &graph.GraphOverlay{}
			if cmd.Flags().Changed("trace") {
				w, err := domain.ParseWord(trace)
				if err != nil {
					return err
				}
				overlay.Trace = w
			}
			if symbols != "" {
				overlay.Symbols = strings.Split(symbols, ",")
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(a, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("session", "", "Render the conjecture of this session")
	graphCmd.Flags().String("trace", "", "Highlight the run of a word (dot separated symbols, e.g. 0.1.1)")
	graphCmd.Flags().String("symbols", "", "Comma separated names of the alphabet symbols")
}
