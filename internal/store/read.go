package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrBuildNotFound is returned by ReadBuild for an unknown id.
var ErrBuildNotFound = errors.New("build not found")

// ListBuilds returns the recorded builds of bus, or of every bus if bus is
// empty, with their message tables.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing was recorded.
func (s *Store) ListBuilds(ctx context.Context, bus string) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, bus, fingerprint, ir_version, compiler_version
		FROM builds
		WHERE ? = '' OR bus = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, bus, bus)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}

	for i := range builds {
		msgs, err := s.readMessages(ctx, builds[i].ID)
		if err != nil {
			return nil, err
		}
		builds[i].Messages = msgs
	}
	return builds, nil
}

// ReadBuild retrieves a single build by id.
// Returns ErrBuildNotFound if it does not exist.
func (s *Store) ReadBuild(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, seq, bus, fingerprint, ir_version, compiler_version
		FROM builds
		WHERE id = ?
	`, id)

	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, fmt.Errorf("read build %q: %w", id, ErrBuildNotFound)
	}
	if err != nil {
		return Build{}, err
	}

	b.Messages, err = s.readMessages(ctx, id)
	if err != nil {
		return Build{}, err
	}
	return b, nil
}

// LatestBuild returns the most recent build of bus.
// The second result is false if the bus has no recorded builds.
func (s *Store) LatestBuild(ctx context.Context, bus string) (Build, bool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM builds
		WHERE bus = ?
		ORDER BY seq DESC
		LIMIT 1
	`, bus).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, false, nil
	}
	if err != nil {
		return Build{}, false, fmt.Errorf("latest build: %w", err)
	}

	b, err := s.ReadBuild(ctx, id)
	if err != nil {
		return Build{}, false, err
	}
	return b, true, nil
}

func (s *Store) readMessages(ctx context.Context, buildID string) ([]BuildMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, can_id, extended, length, layout
		FROM build_messages
		WHERE build_id = ?
		ORDER BY position ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query build messages: %w", err)
	}
	defer rows.Close()

	msgs := []BuildMessage{}
	for rows.Next() {
		var m BuildMessage
		if err := rows.Scan(&m.Name, &m.ID, &m.Extended, &m.Length, &m.Layout); err != nil {
			return nil, fmt.Errorf("scan build message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate build messages: %w", err)
	}
	return msgs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (Build, error) {
	var b Build
	err := row.Scan(&b.ID, &b.Seq, &b.Bus, &b.Fingerprint, &b.IRVersion, &b.CompilerVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, err
	}
	if err != nil {
		return Build{}, fmt.Errorf("scan build: %w", err)
	}
	return b, nil
}
