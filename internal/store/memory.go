package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"newsgraph/internal/core"
)

// Memory keeps checkpoints in process. States are stored serialized so
// callers never share memory with the store.
type Memory struct {
	mu     sync.RWMutex
	states map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{states: make(map[string][]byte)}
}

func (m *Memory) Save(ctx context.Context, state *core.RunState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode run state: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[state.ID] = data
	return nil
}

func (m *Memory) Load(ctx context.Context, runID string) (*core.RunState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.states[runID]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return decodeState(data)
}

func (m *Memory) Close() error {
	return nil
}

func decodeState(data []byte) (*core.RunState, error) {
	var state core.RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode run state: %w", err)
	}
	return &state, nil
}
