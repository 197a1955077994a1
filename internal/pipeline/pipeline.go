// Package pipeline drives a run through its stages and checkpoints the state
// after each one.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"newsgraph/internal/core"
	"newsgraph/internal/logger"
)

// DefaultMaxRefineRounds bounds follow-up queries on one run.
const DefaultMaxRefineRounds = 3

var (
	ErrMissingTopic        = errors.New("topic is required")
	ErrMissingQuery        = errors.New("refine query is required")
	ErrMissingCollaborator = errors.New("missing pipeline collaborator")
	ErrRefineLimit         = errors.New("refine round limit reached")
	ErrRunNotFinished      = errors.New("run has not finished")
)

// Config holds orchestration settings
type Config struct {
	MaxRefineRounds int
}

// DefaultConfig returns sensible defaults for the pipeline
func DefaultConfig() Config {
	return Config{MaxRefineRounds: DefaultMaxRefineRounds}
}

// Pipeline orchestrates the answer workflow
type Pipeline struct {
	c     Collaborators
	cfg   Config
	newID func() string
	log   *slog.Logger
}

// New creates a pipeline; every collaborator must be set.
func New(c Collaborators, cfg Config) (*Pipeline, error) {
	missing := []string{}
	if c.Collector == nil {
		missing = append(missing, "collector")
	}
	if c.Enricher == nil {
		missing = append(missing, "enricher")
	}
	if c.Graph == nil {
		missing = append(missing, "graph builder")
	}
	if c.Partitioner == nil {
		missing = append(missing, "partitioner")
	}
	if c.Ranker == nil {
		missing = append(missing, "ranker")
	}
	if c.Drafter == nil {
		missing = append(missing, "drafter")
	}
	if c.Store == nil {
		missing = append(missing, "store")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingCollaborator, strings.Join(missing, ", "))
	}

	if cfg.MaxRefineRounds <= 0 {
		cfg.MaxRefineRounds = DefaultMaxRefineRounds
	}
	return &Pipeline{
		c:     c,
		cfg:   cfg,
		newID: uuid.NewString,
		log:   logger.Get(),
	}, nil
}

// Run starts a new run for topic and executes it to completion. A non-empty
// refineQuery is answered after the first draft.
func (p *Pipeline) Run(ctx context.Context, topic, refineQuery string) (*core.RunState, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrMissingTopic
	}

	state := core.NewRunState(p.newID(), topic, strings.TrimSpace(refineQuery))
	p.log.Info("Starting run", "run_id", state.ID, "topic", topic, "refine_query", state.RefineQuery)

	if err := p.checkpoint(ctx, state); err != nil {
		return state, err
	}
	return p.execute(ctx, state)
}

// Resume continues a run from its last checkpoint. A finished run is
// returned unchanged.
func (p *Pipeline) Resume(ctx context.Context, runID string) (*core.RunState, error) {
	state, err := p.c.Store.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if state.Stage == core.StageDone {
		return state, nil
	}
	p.log.Info("Resuming run", "run_id", runID, "stage", state.Stage)
	return p.execute(ctx, state)
}

// Refine answers a follow-up query on a finished run. The query travels the
// same conditional edge a refine query given to Run does.
func (p *Pipeline) Refine(ctx context.Context, runID, query string) (*core.RunState, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrMissingQuery
	}

	state, err := p.c.Store.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if state.Stage != core.StageDone {
		return state, fmt.Errorf("%w: %s is at %s", ErrRunNotFinished, runID, state.Stage)
	}
	if state.RefineRounds >= p.cfg.MaxRefineRounds {
		return state, fmt.Errorf("%w: %d rounds", ErrRefineLimit, state.RefineRounds)
	}

	state.RefineQuery = query
	state.Stage = next(core.StageDraft, state)
	return p.execute(ctx, state)
}

// Get returns the latest checkpoint of a run.
func (p *Pipeline) Get(ctx context.Context, runID string) (*core.RunState, error) {
	return p.c.Store.Load(ctx, runID)
}

// Close releases the checkpoint store.
func (p *Pipeline) Close() error {
	return p.c.Store.Close()
}

func (p *Pipeline) execute(ctx context.Context, state *core.RunState) (*core.RunState, error) {
	for state.Stage != core.StageDone {
		if err := ctx.Err(); err != nil {
			return state, fmt.Errorf("run %s stopped before %s: %w", state.ID, state.Stage, err)
		}

		stage := state.Stage
		if err := p.step(ctx, state); err != nil {
			return state, fmt.Errorf("stage %s: %w", stage, err)
		}
		state.Stage = next(stage, state)

		if err := p.checkpoint(ctx, state); err != nil {
			return state, err
		}
		p.log.Debug("Stage complete", "run_id", state.ID, "stage", stage, "next", state.Stage)
	}

	p.log.Info("Run complete", "run_id", state.ID, "articles", len(state.Articles), "clusters", len(state.Clusters), "refine_rounds", state.RefineRounds)
	return state, nil
}

// step executes one stage. Only contract violations are returned; stage
// collaborators degrade internally.
func (p *Pipeline) step(ctx context.Context, state *core.RunState) error {
	switch state.Stage {
	case core.StageFetch:
		articles := p.c.Collector.Collect(ctx, state.Topic)
		p.log.Info("Fetched articles", "run_id", state.ID, "articles", len(articles))
		return state.CommitRawArticles(articles)

	case core.StageEnrich:
		return state.CommitArticles(p.c.Enricher.Enrich(ctx, state.RawArticles))

	case core.StageBuildGraph:
		matrix, edges := p.c.Graph.Build(ctx, state.Articles)
		return state.CommitGraph(matrix, edges)

	case core.StageCluster:
		return state.CommitClusters(p.c.Partitioner.Partition(ctx, state.Articles, state.Edges))

	case core.StageRank:
		return state.CommitRankedClusters(p.c.Ranker.Rank(ctx, state.Topic, state.Clusters))

	case core.StageDraft:
		answer := p.c.Drafter.Draft(ctx, state.Topic, state.DraftClusters())
		return state.CommitAnswer(answer, state.Topic)

	case core.StageRefine:
		if state.RefineQuery == "" {
			return nil
		}
		if state.RefineQuery == state.AnsweredQuery {
			p.log.Info("Refine query already answered", "run_id", state.ID, "query", state.RefineQuery)
			state.ClearRefineQuery()
			return nil
		}
		state.CommitRefinedAnswer(p.c.Drafter.Refine(ctx, state.RefineQuery, state.DraftClusters()))
		return nil

	default:
		return fmt.Errorf("unknown stage %q", state.Stage)
	}
}

// next is the transition function of the workflow.
func next(stage core.Stage, state *core.RunState) core.Stage {
	switch stage {
	case core.StageFetch:
		return core.StageEnrich
	case core.StageEnrich:
		return core.StageBuildGraph
	case core.StageBuildGraph:
		return core.StageCluster
	case core.StageCluster:
		return core.StageRank
	case core.StageRank:
		return core.StageDraft
	case core.StageDraft:
		if state.RefineQuery != "" {
			return core.StageRefine
		}
		return core.StageDone
	default:
		return core.StageDone
	}
}

func (p *Pipeline) checkpoint(ctx context.Context, state *core.RunState) error {
	if err := p.c.Store.Save(ctx, state); err != nil {
		p.log.Error("Checkpoint failed", "run_id", state.ID, "stage", state.Stage, "error", err)
		return fmt.Errorf("checkpoint run %s at %s: %w", state.ID, state.Stage, err)
	}
	return nil
}
