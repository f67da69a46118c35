package plugin

import (
	"context"
	"os"
	"testing"

	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/log"
	"github.com/mattjoyce/relay/internal/protocol"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

func echoPlugin(t *testing.T, name string) *Plugin {
	t.Helper()
	ch := ipc.NewChannel(name, ipc.Options{})
	err := ch.SetHandler(func(priv any, request string) protocol.Reply {
		return protocol.Reply{Status: protocol.StatusOK, Answer: request}
	}, nil)
	if err != nil {
		t.Fatalf("SetHandler failed: %v", err)
	}
	return &Plugin{Name: name, Version: "1.0.0", Channel: ch}
}

func TestAddAndGet(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(echoPlugin(t, "vadmin")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	p, ok := r.Get("vadmin")
	if !ok || p.Name != "vadmin" {
		t.Fatalf("Get returned %v, %v", p, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("Get found a plugin that was never added")
	}
}

func TestAddDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(echoPlugin(t, "vadmin")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(echoPlugin(t, "vadmin")); err == nil {
		t.Fatal("expected error on duplicate name")
	}
}

func TestAddInvalid(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(&Plugin{Name: "", Channel: ipc.NewChannel("x", ipc.Options{})}); err == nil {
		t.Fatal("expected error on empty name")
	}
	if err := r.Add(&Plugin{Name: "x"}); err == nil {
		t.Fatal("expected error on nil channel")
	}
}

func TestNames(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"vlog", "vadmin", "status"} {
		if err := r.Add(echoPlugin(t, name)); err != nil {
			t.Fatalf("Add %s failed: %v", name, err)
		}
	}

	names := r.Names()
	want := []string{"status", "vadmin", "vlog"}
	if len(names) != len(want) {
		t.Fatalf("unexpected names: %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestAttachUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Attach("nope"); err == nil {
		t.Fatal("expected error attaching to unknown provider")
	}
}

func TestAttachAndRoundTrip(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(echoPlugin(t, "vadmin")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ep, err := r.Attach("vadmin")
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer ep.Close()

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	defer r.StopAll()

	reply, err := ipc.Run(ep, "ping")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply.Status != protocol.StatusOK || reply.Answer != "ping" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	// Registration phase is over.
	if _, err := r.Attach("vadmin"); err == nil {
		t.Fatal("expected Attach to fail after StartAll")
	}
}
