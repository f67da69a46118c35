package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/log"
	"github.com/mattjoyce/relay/internal/protocol"
)

// maxCommandBytes caps how much of the command text lands in the audit row.
// Heredoc bodies can be arbitrarily large.
const maxCommandBytes = 4 * 1024

// Entry is one audited command execution.
type Entry struct {
	ID         string
	Plugin     string
	Command    string
	Status     int
	DurationMS int64
	Source     string
	CreatedAt  time.Time
}

// Recorder writes audit entries to the database.
type Recorder struct {
	db *sql.DB
}

// NewRecorder creates a Recorder over an opened audit database.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record inserts one audit entry. ID and CreatedAt are assigned here.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	if e.Plugin == "" {
		return fmt.Errorf("plugin is empty")
	}
	if e.Source == "" {
		e.Source = "internal"
	}
	command := e.Command
	if len(command) > maxCommandBytes {
		command = command[:maxCommandBytes]
	}

	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO command_audit(id, plugin, command, status, duration_ms, source, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, id, e.Plugin, command, e.Status, e.DurationMS, e.Source, now)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries, newest first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, plugin, command, status, duration_ms, source, created_at
FROM command_audit
ORDER BY created_at DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.Plugin, &e.Command, &e.Status, &e.DurationMS, &e.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetMeta stores one key/value pair about this daemon run, e.g. the config
// fingerprint.
func (r *Recorder) SetMeta(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO run_meta(key, value) VALUES(?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;
`, key, value)
	if err != nil {
		return fmt.Errorf("set run meta %q: %w", key, err)
	}
	return nil
}

// GetMeta reads one run_meta value. Returns ("", nil) when the key is absent.
func (r *Recorder) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM run_meta WHERE key = ?;`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get run meta %q: %w", key, err)
	}
	return value, nil
}

// Wrap decorates a provider handler so every dispatched command lands in the
// audit trail. Recording failures are logged, never surfaced to the consumer.
func (r *Recorder) Wrap(pluginName string, h ipc.Handler) ipc.Handler {
	logger := log.WithComponent("audit")
	return func(priv any, request string) protocol.Reply {
		start := time.Now()
		reply := h(priv, request)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := r.Record(ctx, Entry{
			Plugin:     pluginName,
			Command:    request,
			Status:     reply.Status,
			DurationMS: time.Since(start).Milliseconds(),
		})
		if err != nil {
			logger.Warn("failed to record command", "plugin", pluginName, "error", err)
		}
		return reply
	}
}
