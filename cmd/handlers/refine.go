package handlers

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewRefineCmd creates the refine command
func NewRefineCmd() *cobra.Command {
	var answerOnly bool

	cmd := &cobra.Command{
		Use:   "refine <run-id> <query>",
		Short: "Ask a follow-up question on a finished run",
		Long: `Refine re-filters the clusters of a finished run against a new query and
drafts a new answer. The number of follow-ups per run is limited by
pipeline.max_refine_rounds.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			state, err := p.Refine(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			return writeState(cmd.OutOrStdout(), state, answerOnly)
		},
	}

	cmd.Flags().BoolVar(&answerOnly, "answer-only", false, "Print only the answer text")

	return cmd
}
