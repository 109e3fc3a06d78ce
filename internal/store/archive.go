package store

import (
	"database/sql"
	"fmt"

	"github.com/jward/codemap/internal/graph"
)

// WriteGraph replaces the archive contents with snap, the deferred calls
// and the file records in a single transaction.
func (s *Store) WriteGraph(snap *graph.Snapshot, pending []graph.PendingCall, files []*File) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM relations",
		"DELETE FROM entities",
		"DELETE FROM pending_calls",
		"DELETE FROM files",
	} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("store: clear archive: %w", err)
		}
	}

	fileStmt, err := tx.Prepare("INSERT INTO files (path, language, hash, lines, indexed_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare files: %w", err)
	}
	defer fileStmt.Close()
	for _, f := range files {
		if _, err := fileStmt.Exec(f.Path, f.Language, f.Hash, f.Lines, f.IndexedAt); err != nil {
			return fmt.Errorf("store: insert file %s: %w", f.Path, err)
		}
	}

	entStmt, err := tx.Prepare(
		"INSERT INTO entities (ordinal, id, kind, name, start_line, end_line, documentation, snippet) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("store: prepare entities: %w", err)
	}
	defer entStmt.Close()
	for i, e := range snap.Nodes {
		if _, err := entStmt.Exec(i, e.ID, string(e.Kind), e.Name, e.StartLine, e.EndLine, e.Documentation, e.Snippet); err != nil {
			return fmt.Errorf("store: insert entity %s: %w", e.ID, err)
		}
	}

	relStmt, err := tx.Prepare("INSERT INTO relations (ordinal, source, target, kind) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare relations: %w", err)
	}
	defer relStmt.Close()
	for i, r := range snap.Edges {
		if _, err := relStmt.Exec(i, r.Source, r.Target, string(r.Kind)); err != nil {
			return fmt.Errorf("store: insert relation %s -> %s: %w", r.Source, r.Target, err)
		}
	}

	pcStmt, err := tx.Prepare("INSERT INTO pending_calls (ordinal, file_path, source_id, callee) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("store: prepare pending calls: %w", err)
	}
	defer pcStmt.Close()
	for i, pc := range pending {
		if _, err := pcStmt.Exec(i, pc.FilePath, pc.SourceID, pc.Callee); err != nil {
			return fmt.Errorf("store: insert pending call %s: %w", pc.Callee, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// ReadGraph returns the archived snapshot and deferred calls in the order
// they were written.
func (s *Store) ReadGraph() (*graph.Snapshot, []graph.PendingCall, error) {
	snap := &graph.Snapshot{Nodes: []graph.Entity{}, Edges: []graph.Relation{}}

	rows, err := s.db.Query(
		"SELECT id, kind, name, start_line, end_line, documentation, snippet FROM entities ORDER BY ordinal",
	)
	if err != nil {
		return nil, nil, fmt.Errorf("store: query entities: %w", err)
	}
	ents, err := scanEntities(rows)
	if err != nil {
		return nil, nil, err
	}
	snap.Nodes = append(snap.Nodes, ents...)

	rows, err = s.db.Query("SELECT source, target, kind FROM relations ORDER BY ordinal")
	if err != nil {
		return nil, nil, fmt.Errorf("store: query relations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r graph.Relation
		var kind string
		if err := rows.Scan(&r.Source, &r.Target, &kind); err != nil {
			return nil, nil, fmt.Errorf("store: scan relation: %w", err)
		}
		r.Kind = graph.RelationKind(kind)
		snap.Edges = append(snap.Edges, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("store: iterate relations: %w", err)
	}

	pending, err := s.PendingCalls()
	if err != nil {
		return nil, nil, err
	}
	return snap, pending, nil
}

// PendingCalls returns the archived deferred calls in order.
func (s *Store) PendingCalls() ([]graph.PendingCall, error) {
	rows, err := s.db.Query("SELECT file_path, source_id, callee FROM pending_calls ORDER BY ordinal")
	if err != nil {
		return nil, fmt.Errorf("store: query pending calls: %w", err)
	}
	defer rows.Close()

	var out []graph.PendingCall
	for rows.Next() {
		var pc graph.PendingCall
		if err := rows.Scan(&pc.FilePath, &pc.SourceID, &pc.Callee); err != nil {
			return nil, fmt.Errorf("store: scan pending call: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

// Files returns every archived file record ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT path, language, hash, lines, indexed_at FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("store: query files: %w", err)
	}
	defer rows.Close()

	var out []*File
	for rows.Next() {
		f := &File{}
		if err := rows.Scan(&f.Path, &f.Language, &f.Hash, &f.Lines, &f.IndexedAt); err != nil {
			return nil, fmt.Errorf("store: scan file: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FileByPath returns the file record for path, or nil when it is absent.
func (s *Store) FileByPath(path string) (*File, error) {
	f := &File{}
	err := s.db.QueryRow(
		"SELECT path, language, hash, lines, indexed_at FROM files WHERE path = ?", path,
	).Scan(&f.Path, &f.Language, &f.Hash, &f.Lines, &f.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: file by path: %w", err)
	}
	return f, nil
}

// EntitiesByName returns archived entities with the given name in
// insertion order.
func (s *Store) EntitiesByName(name string) ([]graph.Entity, error) {
	rows, err := s.db.Query(
		"SELECT id, kind, name, start_line, end_line, documentation, snippet FROM entities WHERE name = ? ORDER BY ordinal",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("store: entities by name: %w", err)
	}
	return scanEntities(rows)
}

// EntitiesByKind returns archived entities of any of the given kinds in
// insertion order.
func (s *Store) EntitiesByKind(kinds ...graph.Kind) ([]graph.Entity, error) {
	if len(kinds) == 0 {
		return nil, nil
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	rows, err := s.db.Query(
		"SELECT id, kind, name, start_line, end_line, documentation, snippet FROM entities WHERE kind IN ("+
			placeholderList(len(names))+") ORDER BY ordinal",
		stringsToArgs(names)...,
	)
	if err != nil {
		return nil, fmt.Errorf("store: entities by kind: %w", err)
	}
	return scanEntities(rows)
}

// scanEntities drains and closes rows.
func scanEntities(rows *sql.Rows) ([]graph.Entity, error) {
	defer rows.Close()
	var out []graph.Entity
	for rows.Next() {
		var e graph.Entity
		var kind string
		var doc, snippet sql.NullString
		if err := rows.Scan(&e.ID, &kind, &e.Name, &e.StartLine, &e.EndLine, &doc, &snippet); err != nil {
			return nil, fmt.Errorf("store: scan entity: %w", err)
		}
		e.Kind = graph.Kind(kind)
		e.Documentation = doc.String
		e.Snippet = snippet.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate entities: %w", err)
	}
	return out, nil
}
