package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/sop-question-agent/internal/audit"
)

var auditEventColumns = []string{"run_id", "seq", "ts_ms", "agent", "event", "data"}

// SaveAuditEvents bulk-inserts a run's timeline with COPY. Events keep their
// position in the log as their sequence number.
func (db *DB) SaveAuditEvents(ctx context.Context, runID uuid.UUID, log audit.Log) error {
	if len(log) == 0 {
		return nil
	}

	rows, err := auditRows(runID, log)
	if err != nil {
		return err
	}

	n, err := db.pool.CopyFrom(ctx, pgx.Identifier{"audit_events"}, auditEventColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to save audit events: %w", err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("failed to save audit events: copied %d of %d", n, len(rows))
	}
	return nil
}

// ListAuditEvents returns a run's timeline in its original order.
func (db *DB) ListAuditEvents(ctx context.Context, runID uuid.UUID) ([]AuditEvent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT seq, ts_ms, agent, event, data
		 FROM audit_events WHERE run_id = $1 ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	events := []AuditEvent{}
	for rows.Next() {
		var e AuditEvent
		var data []byte
		if err := rows.Scan(&e.Seq, &e.TSMs, &e.Agent, &e.Event, &data); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		e.Data = map[string]any{}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal audit event %d: %w", e.Seq, err)
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}

func auditRows(runID uuid.UUID, log audit.Log) ([][]any, error) {
	rows := make([][]any, 0, len(log))
	for i, e := range log {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal audit event %d: %w", i, err)
		}
		rows = append(rows, []any{runID, i, e.TSMs, e.Agent, e.Event, data})
	}
	return rows, nil
}
