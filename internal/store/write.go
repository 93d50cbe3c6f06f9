package store

import (
	"context"
	"fmt"

	"github.com/roach88/canspec/internal/ir"
)

// Build is one recorded compilation.
type Build struct {
	ID              string         `json:"id"`
	Seq             int64          `json:"seq"`
	Bus             string         `json:"bus"`
	Fingerprint     string         `json:"fingerprint"`
	IRVersion       string         `json:"ir_version"`
	CompilerVersion string         `json:"compiler_version"`
	Messages        []BuildMessage `json:"messages"`
}

// BuildMessage is one row of a build's message table.
type BuildMessage struct {
	Name     string `json:"name"`
	ID       uint32 `json:"id"`
	Extended bool   `json:"extended,omitempty"`
	Length   int    `json:"length"`
	Layout   string `json:"layout"` // ir.LayoutFingerprint
}

// RecordBuild appends a build of bus to the history and returns it.
//
// The build and its message table are written in one transaction; seq is
// the next value of the logical clock, assigned inside that transaction.
func (s *Store) RecordBuild(ctx context.Context, bus *ir.Bus) (Build, error) {
	fingerprint := bus.Fingerprint
	if fingerprint == "" {
		fp, err := ir.Fingerprint(bus)
		if err != nil {
			return Build{}, fmt.Errorf("record build: %w", err)
		}
		fingerprint = fp
	}

	b := Build{
		ID:              s.ids.Generate(),
		Bus:             bus.Name,
		Fingerprint:     fingerprint,
		IRVersion:       bus.IRVersion,
		CompilerVersion: ir.CompilerVersion,
		Messages:        make([]BuildMessage, 0, len(bus.Messages)),
	}
	for i := range bus.Messages {
		m := &bus.Messages[i]
		layout, err := ir.LayoutFingerprint(m)
		if err != nil {
			return Build{}, fmt.Errorf("record build: %w", err)
		}
		b.Messages = append(b.Messages, BuildMessage{
			Name:     m.Name,
			ID:       m.ID,
			Extended: m.Extended,
			Length:   m.Length,
			Layout:   layout,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Build{}, fmt.Errorf("record build: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM builds`).Scan(&b.Seq); err != nil {
		return Build{}, fmt.Errorf("record build: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, bus, fingerprint, ir_version, compiler_version)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		b.ID,
		b.Seq,
		b.Bus,
		b.Fingerprint,
		b.IRVersion,
		b.CompilerVersion,
	)
	if err != nil {
		return Build{}, fmt.Errorf("record build: insert build: %w", err)
	}

	for pos, m := range b.Messages {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO build_messages
			(build_id, position, name, can_id, extended, length, layout)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			b.ID,
			pos,
			m.Name,
			m.ID,
			m.Extended,
			m.Length,
			m.Layout,
		)
		if err != nil {
			return Build{}, fmt.Errorf("record build: insert message %q: %w", m.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Build{}, fmt.Errorf("record build: commit: %w", err)
	}
	return b, nil
}
