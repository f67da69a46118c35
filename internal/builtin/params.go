package builtin

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/plugin"
	"github.com/mattjoyce/relay/internal/protocol"
)

// paramsState is the params provider's private state. The dispatch loop
// serializes all access, so no locking is needed.
type paramsState struct {
	values map[string]string
}

// NewParams builds the params provider: an in-memory parameter table with
// single-line and heredoc set forms.
func NewParams(opts ipc.Options, mw plugin.Middleware) *plugin.Plugin {
	ch := ipc.NewChannel("params", opts)
	h := ipc.Handler(paramsHandler)
	if mw != nil {
		h = mw("params", h)
	}
	_ = ch.SetHandler(h, &paramsState{values: make(map[string]string)})
	return &plugin.Plugin{Name: "params", Version: "1.0.0", Channel: ch}
}

func paramsHandler(priv any, request string) protocol.Reply {
	st := priv.(*paramsState)

	// A request carrying line breaks is a heredoc-set body: first line is
	// the parameter name, the remaining lines are the value.
	if strings.Contains(request, "\n") {
		name, value, _ := strings.Cut(strings.TrimSuffix(request, "\n"), "\n")
		name = strings.TrimSpace(name)
		if name == "" {
			return protocol.Reply{Status: protocol.StatusSyntax, Answer: "missing parameter name"}
		}
		st.values[name] = value
		return protocol.Reply{Status: protocol.StatusOK, Answer: ""}
	}

	fields := strings.Fields(request)
	if len(fields) == 0 {
		return protocol.Reply{Status: protocol.StatusSyntax, Answer: "blank command"}
	}
	switch fields[0] {
	case "param.set":
		if len(fields) < 3 {
			return protocol.Reply{Status: protocol.StatusTooFew, Answer: "usage: param.set <name> <value>"}
		}
		st.values[fields[1]] = strings.Join(fields[2:], " ")
		return protocol.Reply{Status: protocol.StatusOK, Answer: ""}

	case "param.get":
		if len(fields) != 2 {
			return protocol.Reply{Status: protocol.StatusTooFew, Answer: "usage: param.get <name>"}
		}
		value, ok := st.values[fields[1]]
		if !ok {
			return protocol.Reply{Status: protocol.StatusParam, Answer: fmt.Sprintf("unknown parameter %q", fields[1])}
		}
		return protocol.Reply{Status: protocol.StatusOK, Answer: value}

	case "param.list":
		names := make([]string, 0, len(st.values))
		for name := range st.values {
			names = append(names, name)
		}
		sort.Strings(names)
		return protocol.Reply{Status: protocol.StatusOK, Answer: strings.Join(names, "\n")}

	default:
		return protocol.Reply{Status: protocol.StatusUnknown, Answer: "unknown command"}
	}
}
