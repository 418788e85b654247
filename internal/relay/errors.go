// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import "strings"

// Kind classifies a relay failure.
type Kind int

const (
	// KindUnknown is a malformed or missing reply.
	KindUnknown Kind = iota
	// KindTimeout is a compile that did not answer in time.
	KindTimeout
	// KindTransport is an unreachable host or a closed channel.
	KindTransport
	// KindCompile is a failure reported by the engine.
	KindCompile
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "transport"
	case KindCompile:
		return "compile"
	default:
		return "unknown"
	}
}

// Error is a failed relay call.
type Error struct {
	Kind    Kind
	Message string
	// Trace is diagnostic detail reported alongside a compile failure.
	Trace string
	Err   error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrTimeout   = &Error{Kind: KindTimeout}
	ErrTransport = &Error{Kind: KindTransport}
	ErrCompile   = &Error{Kind: KindCompile}
	ErrUnknown   = &Error{Kind: KindUnknown}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// compileFailure splits a reported error into message and trace at the
// first newline.
func compileFailure(reported string) *Error {
	msg, trace, _ := strings.Cut(reported, "\n")
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "compile failed"
	}
	return &Error{Kind: KindCompile, Message: msg, Trace: strings.TrimSpace(trace)}
}
