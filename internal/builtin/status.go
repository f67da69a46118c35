package builtin

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/plugin"
	"github.com/mattjoyce/relay/internal/protocol"
)

// statusState is the status provider's private state.
type statusState struct {
	startedAt time.Time
}

// NewStatus builds the status provider: liveness and uptime answers.
func NewStatus(opts ipc.Options, mw plugin.Middleware) *plugin.Plugin {
	ch := ipc.NewChannel("status", opts)
	h := ipc.Handler(statusHandler)
	if mw != nil {
		h = mw("status", h)
	}
	_ = ch.SetHandler(h, &statusState{startedAt: time.Now()})
	return &plugin.Plugin{Name: "status", Version: "1.0.0", Channel: ch}
}

func statusHandler(priv any, request string) protocol.Reply {
	st := priv.(*statusState)

	switch strings.TrimSpace(request) {
	case "ping":
		return protocol.Reply{Status: protocol.StatusOK, Answer: "pong"}
	case "status.get":
		return protocol.Reply{Status: protocol.StatusOK, Answer: "OK"}
	case "uptime.get":
		uptime := int64(time.Since(st.startedAt).Seconds())
		return protocol.Reply{Status: protocol.StatusOK, Answer: fmt.Sprintf("%d", uptime)}
	default:
		return protocol.Reply{Status: protocol.StatusUnknown, Answer: "unknown command"}
	}
}
