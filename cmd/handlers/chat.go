package handlers

import (
	"strings"

	"github.com/spf13/cobra"

	"newsgraph/internal/core"
	"newsgraph/internal/tui"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "chat [topic]",
		Short: "Answer a topic and ask follow-ups interactively",
		Long: `Chat runs the workflow for a topic, or loads a finished run with --run,
and opens an interactive session where each question refines the answer.

Examples:
  newsgraph chat "semiconductor export controls"
  newsgraph chat --run 5f0c2e9a-...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" && len(args) == 0 {
				return cobra.MinimumNArgs(1)(cmd, args)
			}

			p, _, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			ctx := cmd.Context()
			var state *core.RunState
			if runID != "" {
				state, err = p.Get(ctx, runID)
			} else {
				state, err = p.Run(ctx, strings.Join(args, " "), "")
			}
			if err != nil {
				return err
			}

			state, err = tui.Start(ctx, p, state)
			if err != nil {
				return err
			}
			return writeState(cmd.OutOrStdout(), state, true)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Open an existing finished run instead of starting a new one")

	return cmd
}
