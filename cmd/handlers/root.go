package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"newsgraph/internal/citations"
	"newsgraph/internal/config"
	"newsgraph/internal/core"
	"newsgraph/internal/logger"
	"newsgraph/internal/pipeline"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "newsgraph",
		Short: "Answer questions about the news from clustered, cited articles.",
		Long: `newsgraph fetches articles for a topic from several news APIs, enriches
them with full text, embeddings and topics, groups them into stories with
Louvain community detection, and drafts an answer that cites the clusters
and articles it used.

Every run is checkpointed after each stage so it can be resumed or refined
with follow-up questions.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.newsgraph.yaml or $HOME/.newsgraph.yaml)")

	rootCmd.AddCommand(NewRunCmd())
	rootCmd.AddCommand(NewChatCmd())
	rootCmd.AddCommand(NewRefineCmd())
	rootCmd.AddCommand(NewResumeCmd())
	rootCmd.AddCommand(NewShowCmd())
	rootCmd.AddCommand(NewServeCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies the logging settings
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if cfg.App.Debug {
		level = "debug"
	}
	logger.Configure(level, cfg.Logging.Format)
	return cfg, nil
}

// newPipeline builds the configured pipeline; callers must Close it
func newPipeline(ctx context.Context) (*pipeline.Pipeline, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.NewBuilder(cfg).Build(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build pipeline: %w", err)
	}
	return p, cfg, nil
}

// writeState prints a run state as indented JSON. With answerOnly only the
// answer text is printed.
func writeState(w io.Writer, state *core.RunState, answerOnly bool) error {
	if answerOnly {
		_, err := fmt.Fprintln(w, state.Answer)
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// writeSources prints the answer followed by the numbered list of cited
// articles. Tags that do not resolve are reported last.
func writeSources(w io.Writer, state *core.RunState) error {
	resolved, unknown := citations.Resolve(citations.Extract(state.Answer), state.Clusters)

	if _, err := fmt.Fprintf(w, "%s\n\nSources:\n%s", state.Answer, citations.Sources(resolved)); err != nil {
		return err
	}
	if len(unknown) > 0 {
		_, err := fmt.Fprintf(w, "Unresolved: %s\n", strings.Join(unknown, ", "))
		return err
	}
	return nil
}
