package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"newsgraph/internal/core"
)

type fakeRefiner struct {
	queries []string
	err     error
}

func (f *fakeRefiner) Refine(_ context.Context, runID, query string) (*core.RunState, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	s := finishedState()
	s.ID = runID
	s.AnsweredQuery = query
	s.Answer = "Refined answer for " + query
	s.RefineRounds = 1
	return s, nil
}

func finishedState() *core.RunState {
	s := core.NewRunState("run-1", "chip exports", "")
	s.Stage = core.StageDone
	s.Answer = "Export rules tightened [CID 0]"
	s.RankedClusters = []core.Cluster{
		{ID: 0, Members: []int{0, 1}, Articles: []core.Article{{Title: "New export rules"}}, Summary: "Rules tightened."},
		{ID: 1, Members: []int{2}},
	}
	return s
}

func typeText(t *testing.T, m tea.Model, text string) tea.Model {
	t.Helper()
	for _, word := range strings.Split(text, " ") {
		if word == "" {
			continue
		}
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(word)})
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace})
	}
	return m
}

func TestEnterRunsRefine(t *testing.T) {
	refiner := &fakeRefiner{}
	var m tea.Model = newModel(context.Background(), refiner, finishedState())

	m = typeText(t, m, "what about tariffs?")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("Expected a refine command")
	}
	if !m.(model).busy || len(m.(model).input) != 0 {
		t.Errorf("Expected busy model with cleared input, got %+v", m)
	}

	m, _ = m.Update(cmd())

	got := m.(model)
	if len(refiner.queries) != 1 || refiner.queries[0] != "what about tariffs?" {
		t.Errorf("Unexpected refine queries: %q", refiner.queries)
	}
	if got.busy || got.state.AnsweredQuery != "what about tariffs?" {
		t.Errorf("Expected refined state, got busy=%v query=%q", got.busy, got.state.AnsweredQuery)
	}
	if !strings.Contains(got.View(), "Refined answer for what about tariffs?") {
		t.Errorf("Expected view to show the refined answer")
	}
}

func TestEnterIgnoresEmptyInput(t *testing.T) {
	refiner := &fakeRefiner{}
	var m tea.Model = newModel(context.Background(), refiner, finishedState())

	m = typeText(t, m, "   ")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("Expected no command for blank input")
	}
}

func TestRefineErrorKeepsState(t *testing.T) {
	refiner := &fakeRefiner{err: errors.New("refine limit reached")}
	var m tea.Model = newModel(context.Background(), refiner, finishedState())

	m = typeText(t, m, "again")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(cmd())

	got := m.(model)
	if got.err == nil || got.state.Answer != "Export rules tightened [CID 0]" {
		t.Errorf("Expected error with previous answer kept, got err=%v answer=%q", got.err, got.state.Answer)
	}
	if !strings.Contains(got.View(), "refine limit reached") {
		t.Error("Expected view to show the error")
	}
}

func TestSelectionAndEditing(t *testing.T) {
	var m tea.Model = newModel(context.Background(), &fakeRefiner{}, finishedState())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	if got := m.(model).selected; got != 1 {
		t.Errorf("Expected selection clamped at 1, got %d", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if got := m.(model).selected; got != 0 {
		t.Errorf("Expected selection clamped at 0, got %d", got)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("abc")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := string(m.(model).input); got != "ab" {
		t.Errorf("Expected input %q, got %q", "ab", got)
	}

	view := m.View()
	if !strings.Contains(view, "[CID 0] New export rules") || !strings.Contains(view, "[CID 1] 1 articles") {
		t.Errorf("Expected cluster list in view, got %q", view)
	}
}

func TestQuit(t *testing.T) {
	var m tea.Model = newModel(context.Background(), &fakeRefiner{}, finishedState())

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil || !m.(model).quitting {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}
