package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/viant/afs"
)

// SnapshotFile is the name of the snapshot document inside a snapshot
// directory.
const SnapshotFile = "codemap.json"

// ErrNoSnapshot reports that a directory holds no snapshot document.
var ErrNoSnapshot = errors.New("graph: no snapshot")

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	Nodes []Entity   `json:"nodes"`
	Edges []Relation `json:"edges"`
}

// Snapshot captures the current nodes in insertion order and the flattened
// outgoing edges. Deferred calls are not part of a snapshot.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Nodes: make([]Entity, 0, len(s.order)),
		Edges: s.Edges(),
	}
	for _, id := range s.order {
		snap.Nodes = append(snap.Nodes, *s.nodes[id])
	}
	return snap
}

// Restore resets the store and replays every node and edge of snap in
// order.
func (s *Store) Restore(snap *Snapshot) {
	s.Reset()
	for i := range snap.Nodes {
		e := snap.Nodes[i]
		s.AddNode(&e)
	}
	for _, r := range snap.Edges {
		s.AddEdge(r)
	}
}

// Save writes the snapshot document into dir, creating dir if needed.
func (s *Store) Save(ctx context.Context, dir string) error {
	return WriteSnapshot(ctx, afs.New(), dir, s.Snapshot())
}

// Load replaces the store's contents with the snapshot found in dir. On
// any failure, including a missing snapshot, the store is left untouched
// and false is returned.
func (s *Store) Load(ctx context.Context, dir string) bool {
	snap, err := ReadSnapshot(ctx, afs.New(), dir)
	if err != nil {
		return false
	}
	s.Restore(snap)
	return true
}

// WriteSnapshot encodes snap as JSON into dir/codemap.json.
func WriteSnapshot(ctx context.Context, fs afs.Service, dir string, snap *Snapshot) error {
	exists, err := fs.Exists(ctx, dir)
	if err != nil {
		return fmt.Errorf("graph: stat %s: %w", dir, err)
	}
	if !exists {
		if err := fs.Create(ctx, dir, 0o755, true); err != nil {
			return fmt.Errorf("graph: create %s: %w", dir, err)
		}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("graph: encode snapshot: %w", err)
	}
	target := filepath.Join(dir, SnapshotFile)
	if err := fs.Upload(ctx, target, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("graph: write %s: %w", target, err)
	}
	return nil
}

// ReadSnapshot decodes dir/codemap.json. A missing document yields
// ErrNoSnapshot.
func ReadSnapshot(ctx context.Context, fs afs.Service, dir string) (*Snapshot, error) {
	source := filepath.Join(dir, SnapshotFile)
	exists, err := fs.Exists(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("graph: stat %s: %w", source, err)
	}
	if !exists {
		return nil, ErrNoSnapshot
	}
	data, err := fs.DownloadWithURL(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("graph: read %s: %w", source, err)
	}
	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("graph: decode %s: %w", source, err)
	}
	return snap, nil
}
