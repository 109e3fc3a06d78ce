package codemap

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jward/codemap/internal/store"
)

// ArchiveVersion is written to the archive metadata table by Export and
// checked by Import.
const ArchiveVersion = 1

// Export writes the graph, deferred calls and file bookkeeping to a SQLite
// archive at dbPath, replacing whatever the archive held.
func (e *Engine) Export(ctx context.Context, dbPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("codemap: export: %w", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("codemap: export: %w", err)
	}

	if err := s.WriteGraph(e.graph.Snapshot(), e.graph.PendingCalls(), e.Files()); err != nil {
		return fmt.Errorf("codemap: export: %w", err)
	}
	if err := s.SetMetadata("archive_version", strconv.Itoa(ArchiveVersion)); err != nil {
		return fmt.Errorf("codemap: export: %w", err)
	}
	if err := s.SetMetadata("exported_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("codemap: export: %w", err)
	}
	e.logger.Info("exported archive", "path", dbPath, "nodes", e.graph.NodeCount(), "edges", e.graph.EdgeCount())
	return nil
}

// Import replaces the graph, deferred calls and file bookkeeping with the
// contents of the SQLite archive at dbPath.
func (e *Engine) Import(ctx context.Context, dbPath string) error {
	exists, err := e.fs.Exists(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("codemap: import: %w", err)
	}
	if !exists {
		return fmt.Errorf("codemap: import: no archive at %s", dbPath)
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("codemap: import: %w", err)
	}
	defer s.Close()
	if err := s.Migrate(); err != nil {
		return fmt.Errorf("codemap: import: %w", err)
	}

	version, err := s.GetMetadata("archive_version")
	if err != nil {
		return fmt.Errorf("codemap: import: %w", err)
	}
	if version != "" && version != strconv.Itoa(ArchiveVersion) {
		return fmt.Errorf("codemap: import: archive version %s, want %d", version, ArchiveVersion)
	}

	snap, pending, err := s.ReadGraph()
	if err != nil {
		return fmt.Errorf("codemap: import: %w", err)
	}
	files, err := s.Files()
	if err != nil {
		return fmt.Errorf("codemap: import: %w", err)
	}

	e.graph.Restore(snap)
	for _, pc := range pending {
		e.graph.AddPendingCall(pc.FilePath, pc.SourceID, pc.Callee)
	}
	e.files = make(map[string]*IndexedFile, len(files))
	for _, f := range files {
		e.files[f.Path] = f
	}
	e.logger.Info("imported archive", "path", dbPath, "nodes", e.graph.NodeCount(), "pending", len(pending))
	return nil
}
