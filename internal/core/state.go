package core

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// NoRelevantArticles is the answer returned when nothing survives filtering.
const NoRelevantArticles = "No relevant articles found."

// ErrFieldCommitted is returned when a stage tries to overwrite a field that an
// earlier stage already committed.
var ErrFieldCommitted = errors.New("run state field already committed")

// Stage is a state of the workflow state machine.
type Stage string

const (
	StageFetch      Stage = "fetch"
	StageEnrich     Stage = "enrich"
	StageBuildGraph Stage = "build_graph"
	StageCluster    Stage = "cluster"
	StageRank       Stage = "rank"
	StageDraft      Stage = "draft"
	StageRefine     Stage = "refine"
	StageDone       Stage = "done"
)

// Field names a RunState output owned by a single stage.
type Field string

const (
	FieldRawArticles    Field = "raw_articles"
	FieldArticles       Field = "articles"
	FieldEdges          Field = "edges"
	FieldClusters       Field = "clusters"
	FieldRankedClusters Field = "ranked_clusters"
	FieldAnswer         Field = "answer"
)

// RunState is the single object threaded through every stage of a run.
// Each output field is written through a Commit method so a later stage can
// not silently replace an earlier stage's output.
type RunState struct {
	ID             string           `json:"id"`
	Topic          string           `json:"topic"`
	RefineQuery    string           `json:"refine_query,omitempty"`
	AnsweredQuery  string           `json:"answered_query,omitempty"`
	RawArticles    []Article        `json:"raw_articles,omitempty"`
	Articles       []Article        `json:"articles"`
	Similarity     [][]float64      `json:"similarity,omitempty"`
	Edges          []SimilarityEdge `json:"edges"`
	Clusters       []Cluster        `json:"clusters"`
	RankedClusters []Cluster        `json:"ranked_clusters"`
	Answer         string           `json:"answer"`
	Stage          Stage            `json:"stage"`
	RefineRounds   int              `json:"refine_rounds"`
	Committed      []Field          `json:"committed"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewRunState creates the state a run starts with: only the topic and the
// optional refine query are populated.
func NewRunState(id, topic, refineQuery string) *RunState {
	now := time.Now().UTC()
	return &RunState{
		ID:          id,
		Topic:       topic,
		RefineQuery: refineQuery,
		Stage:       StageFetch,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsCommitted reports whether the field has been written by its owning stage.
func (s *RunState) IsCommitted(f Field) bool {
	return slices.Contains(s.Committed, f)
}

func (s *RunState) commit(f Field) error {
	if s.IsCommitted(f) {
		return fmt.Errorf("%w: %s", ErrFieldCommitted, f)
	}
	s.Committed = append(s.Committed, f)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// CommitRawArticles records the merged, unenriched fetch output.
func (s *RunState) CommitRawArticles(articles []Article) error {
	if err := s.commit(FieldRawArticles); err != nil {
		return err
	}
	s.RawArticles = articles
	return nil
}

// CommitArticles records the enriched article list.
func (s *RunState) CommitArticles(articles []Article) error {
	if err := s.commit(FieldArticles); err != nil {
		return err
	}
	s.Articles = articles
	s.RawArticles = nil
	return nil
}

// CommitGraph records the similarity matrix and its sparse edge list.
func (s *RunState) CommitGraph(matrix [][]float64, edges []SimilarityEdge) error {
	if err := s.commit(FieldEdges); err != nil {
		return err
	}
	s.Similarity = matrix
	s.Edges = edges
	return nil
}

// CommitClusters records the partition produced by the cluster stage.
func (s *RunState) CommitClusters(clusters []Cluster) error {
	if err := s.commit(FieldClusters); err != nil {
		return err
	}
	s.Clusters = clusters
	return nil
}

// CommitRankedClusters records the ranked cluster order.
func (s *RunState) CommitRankedClusters(clusters []Cluster) error {
	if err := s.commit(FieldRankedClusters); err != nil {
		return err
	}
	s.RankedClusters = clusters
	return nil
}

// CommitAnswer records the first drafted answer and the query it answers.
func (s *RunState) CommitAnswer(answer, query string) error {
	if err := s.commit(FieldAnswer); err != nil {
		return err
	}
	s.Answer = answer
	s.AnsweredQuery = query
	return nil
}

// CommitRefinedAnswer replaces the answer with one drafted for the refine
// query and clears the refine query so the refine edge cannot fire again.
func (s *RunState) CommitRefinedAnswer(answer string) {
	s.Answer = answer
	s.AnsweredQuery = s.RefineQuery
	s.RefineQuery = ""
	s.RefineRounds++
	s.UpdatedAt = time.Now().UTC()
}

// ClearRefineQuery consumes the refine query without redrafting.
func (s *RunState) ClearRefineQuery() {
	s.RefineQuery = ""
	s.UpdatedAt = time.Now().UTC()
}

// DraftClusters returns the clusters drafting should read: ranked clusters
// when ranking ran, the unranked partition otherwise.
func (s *RunState) DraftClusters() []Cluster {
	if len(s.RankedClusters) > 0 {
		return s.RankedClusters
	}
	return s.Clusters
}
