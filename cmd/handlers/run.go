package handlers

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var (
		refineQuery string
		answerOnly  bool
	)

	cmd := &cobra.Command{
		Use:   "run <topic>",
		Short: "Fetch, cluster and answer a news topic",
		Long: `Run the full workflow for a topic and print the final run state.

Examples:
  # Answer a topic
  newsgraph run "semiconductor export controls"

  # Ask a follow-up in the same run
  newsgraph run "semiconductor export controls" --refine "how did Nvidia respond?"

  # Print only the answer
  newsgraph run "EU AI Act" --answer-only`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			state, err := p.Run(cmd.Context(), strings.Join(args, " "), refineQuery)
			if err != nil {
				return err
			}
			return writeState(cmd.OutOrStdout(), state, answerOnly)
		},
	}

	cmd.Flags().StringVar(&refineQuery, "refine", "", "Follow-up question answered after the first draft")
	cmd.Flags().BoolVar(&answerOnly, "answer-only", false, "Print only the answer text")

	return cmd
}
