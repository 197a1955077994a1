package handlers

import (
	"github.com/spf13/cobra"
)

// NewResumeCmd creates the resume command
func NewResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <run-id>",
		Short: "Continue an interrupted run from its last checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			state, err := p.Resume(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeState(cmd.OutOrStdout(), state, false)
		},
	}
}

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var answerOnly, sources bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the latest checkpoint of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := newPipeline(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()

			state, err := p.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if sources {
				return writeSources(cmd.OutOrStdout(), state)
			}
			return writeState(cmd.OutOrStdout(), state, answerOnly)
		},
	}

	cmd.Flags().BoolVar(&answerOnly, "answer-only", false, "Print only the answer text")
	cmd.Flags().BoolVar(&sources, "sources", false, "Print the answer followed by the articles it cites")

	return cmd
}
