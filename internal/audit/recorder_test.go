package audit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mattjoyce/relay/internal/log"
	"github.com/mattjoyce/relay/internal/protocol"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

func setupRecorder(t *testing.T) *Recorder {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "audit.db")
	db, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("failed to open audit db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRecorder(db)
}

func TestRecordAndRecent(t *testing.T) {
	r := setupRecorder(t)
	ctx := context.Background()

	for _, cmd := range []string{"status.get", "param.set foo", "ping"} {
		err := r.Record(ctx, Entry{Plugin: "vadmin", Command: cmd, Status: 200, DurationMS: 3, Source: "http"})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Fatalf("entry missing assigned fields: %+v", e)
		}
		if e.Plugin != "vadmin" || e.Source != "http" {
			t.Fatalf("unexpected entry: %+v", e)
		}
	}
}

func TestRecordRejectsEmptyPlugin(t *testing.T) {
	r := setupRecorder(t)
	if err := r.Record(context.Background(), Entry{Command: "x"}); err == nil {
		t.Fatal("expected error for empty plugin")
	}
}

func TestRecentLimit(t *testing.T) {
	r := setupRecorder(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := r.Record(ctx, Entry{Plugin: "p", Command: "c", Status: 200}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := r.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("limit ignored: got %d entries", len(entries))
	}
}

func TestRunMeta(t *testing.T) {
	r := setupRecorder(t)
	ctx := context.Background()

	if v, err := r.GetMeta(ctx, "config_fingerprint"); err != nil || v != "" {
		t.Fatalf("expected empty meta, got %q, %v", v, err)
	}

	if err := r.SetMeta(ctx, "config_fingerprint", "abc123"); err != nil {
		t.Fatalf("SetMeta failed: %v", err)
	}
	if err := r.SetMeta(ctx, "config_fingerprint", "def456"); err != nil {
		t.Fatalf("SetMeta upsert failed: %v", err)
	}

	v, err := r.GetMeta(ctx, "config_fingerprint")
	if err != nil {
		t.Fatalf("GetMeta failed: %v", err)
	}
	if v != "def456" {
		t.Fatalf("expected upserted value, got %q", v)
	}
}

func TestWrapRecordsDispatch(t *testing.T) {
	r := setupRecorder(t)

	handler := r.Wrap("vadmin", func(priv any, request string) protocol.Reply {
		return protocol.Reply{Status: protocol.StatusOK, Answer: "OK"}
	})

	reply := handler(nil, "status.get")
	if reply.Status != protocol.StatusOK {
		t.Fatalf("wrapped handler altered reply: %+v", reply)
	}

	entries, err := r.Recent(context.Background(), 1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Command != "status.get" || entries[0].Status != 200 {
		t.Fatalf("dispatch not audited: %+v", entries)
	}
	if entries[0].Source != "internal" {
		t.Fatalf("expected default source, got %q", entries[0].Source)
	}
}
