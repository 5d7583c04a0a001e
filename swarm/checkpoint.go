package swarm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/swarmmind/swarmmind/core"
)

// Checkpoint is the serialisable snapshot persisted every
// CheckpointInterval and on shutdown (spec §4.9/§6: "serialise {id,
// name, metrics, agent states, agent metrics, task registry, project
// path, timestamp}").
type Checkpoint struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	Metrics     Metrics                   `json:"metrics"`
	AgentStates map[string]core.AgentStatus `json:"agent_states"`
	AgentMetrics map[string]core.AgentMetrics `json:"agent_metrics"`
	Tasks       map[string]*core.Task     `json:"tasks"`
	ProjectPath string                    `json:"project_path"`
	Timestamp   time.Time                 `json:"timestamp"`
}

// Store persists and restores checkpoints. FileStore is the default
// (spec §6: "checkpoint_<ts>.json snapshots"); RedisStore is the
// additive backend described in SPEC_FULL.md §4.9.
type Store interface {
	Save(ctx context.Context, cp *Checkpoint) error
	LoadLatest(ctx context.Context) (*Checkpoint, error)
}

// FileStore writes checkpoints as human-readable JSON files under Dir,
// named checkpoint_<unix-ts>.json per spec §6, and loads the
// lexicographically (== chronologically, given the fixed-width
// timestamp) latest one on restore.
type FileStore struct {
	Dir string
}

func NewFileStore(dir string) *FileStore { return &FileStore{Dir: dir} }

func (fs *FileStore) Save(ctx context.Context, cp *Checkpoint) error {
	if err := os.MkdirAll(fs.Dir, 0o755); err != nil {
		return core.Wrap("swarm.checkpoint", "Save", cp.ID, err)
	}
	name := fmt.Sprintf("checkpoint_%d.json", cp.Timestamp.Unix())
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return core.Wrap("swarm.checkpoint", "Save", cp.ID, err)
	}
	return os.WriteFile(filepath.Join(fs.Dir, name), data, 0o644)
}

func (fs *FileStore) LoadLatest(ctx context.Context) (*Checkpoint, error) {
	entries, err := os.ReadDir(fs.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)
	data, err := os.ReadFile(filepath.Join(fs.Dir, names[len(names)-1]))
	if err != nil {
		return nil, err
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
