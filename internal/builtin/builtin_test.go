package builtin

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/log"
	"github.com/mattjoyce/relay/internal/plugin"
	"github.com/mattjoyce/relay/internal/protocol"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR")
	os.Exit(m.Run())
}

// startProvider registers one consumer endpoint and starts the plugin's
// channel.
func startProvider(t *testing.T, p *plugin.Plugin) *ipc.Endpoint {
	t.Helper()

	ep, err := p.Channel.Register()
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := p.Channel.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(p.Channel.Stop)
	return ep
}

func TestStatusProvider(t *testing.T) {
	ep := startProvider(t, NewStatus(ipc.Options{}, nil))

	reply, err := ipc.Run(ep, "status.get")
	if err != nil {
		t.Fatalf("status.get failed: %v", err)
	}
	if reply.Status != 200 || reply.Answer != "OK" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	reply, err = ipc.Run(ep, "ping")
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if reply.Answer != "pong" {
		t.Fatalf("unexpected ping answer: %q", reply.Answer)
	}

	reply, err = ipc.Run(ep, "uptime.get")
	if err != nil {
		t.Fatalf("uptime.get failed: %v", err)
	}
	if _, err := strconv.ParseInt(reply.Answer, 10, 64); err != nil {
		t.Fatalf("uptime answer not numeric: %q", reply.Answer)
	}

	reply, err = ipc.Run(ep, "bogus")
	if err != nil {
		t.Fatalf("bogus command failed: %v", err)
	}
	if reply.Status != protocol.StatusUnknown {
		t.Fatalf("expected unknown status, got %+v", reply)
	}
}

func TestParamsSetGet(t *testing.T) {
	ep := startProvider(t, NewParams(ipc.Options{}, nil))

	reply, err := ipc.Run(ep, "param.set weight 7")
	if err != nil {
		t.Fatalf("param.set failed: %v", err)
	}
	if !reply.OK() {
		t.Fatalf("param.set rejected: %+v", reply)
	}

	reply, err = ipc.Run(ep, "param.get weight")
	if err != nil {
		t.Fatalf("param.get failed: %v", err)
	}
	if reply.Answer != "7" {
		t.Fatalf("unexpected value: %q", reply.Answer)
	}
}

func TestParamsHeredocSet(t *testing.T) {
	ep := startProvider(t, NewParams(ipc.Options{}, nil))

	reply, err := ipc.Run(ep, "param.set << EOF\nmotd\nline one\nline two\nEOF")
	if err != nil {
		t.Fatalf("heredoc set failed: %v", err)
	}
	if !reply.OK() {
		t.Fatalf("heredoc set rejected: %+v", reply)
	}

	reply, err = ipc.Run(ep, "param.get motd")
	if err != nil {
		t.Fatalf("param.get failed: %v", err)
	}
	if reply.Answer != "line one\nline two" {
		t.Fatalf("multi-line value mangled: %q", reply.Answer)
	}
}

func TestParamsGetUnknown(t *testing.T) {
	ep := startProvider(t, NewParams(ipc.Options{}, nil))

	reply, err := ipc.Run(ep, "param.get missing")
	if err != nil {
		t.Fatalf("param.get failed: %v", err)
	}
	if reply.Status != protocol.StatusParam {
		t.Fatalf("expected param error, got %+v", reply)
	}
}

func TestParamsList(t *testing.T) {
	ep := startProvider(t, NewParams(ipc.Options{}, nil))

	for _, cmd := range []string{"param.set b 2", "param.set a 1"} {
		if _, err := ipc.Run(ep, "%s", cmd); err != nil {
			t.Fatalf("%s failed: %v", cmd, err)
		}
	}

	reply, err := ipc.Run(ep, "param.list")
	if err != nil {
		t.Fatalf("param.list failed: %v", err)
	}
	if reply.Answer != "a\nb" {
		t.Fatalf("unexpected listing: %q", reply.Answer)
	}
}

func TestParamsUsageErrors(t *testing.T) {
	ep := startProvider(t, NewParams(ipc.Options{}, nil))

	reply, err := ipc.Run(ep, "param.set onlyname")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if reply.Status != protocol.StatusTooFew {
		t.Fatalf("expected toofew status, got %+v", reply)
	}
}
