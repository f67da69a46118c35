package protocol

// Status codes carried on the reply frame. The set mirrors the CLI status
// space the providers already speak: 2xx is success, 1xx argues with the
// command, everything else reports a fault answering it.
const (
	StatusSyntax   = 100
	StatusUnknown  = 101
	StatusUnimpl   = 102
	StatusTooFew   = 104
	StatusTooMany  = 105
	StatusParam    = 106
	StatusOK       = 200
	StatusCant     = 300
	StatusComms    = 400
	StatusInternal = 800
)

// Reply is a provider's answer to one command: a status code plus an
// arbitrary-length answer payload. The payload is a plain string copy; whoever
// holds a Reply owns it outright.
type Reply struct {
	Status int
	Answer string
}

// OK reports whether the reply carries a success status.
func (r Reply) OK() bool {
	return r.Status == StatusOK
}
