// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import (
	"context"
	"errors"
	"sync"
)

// ErrPortClosed is returned when posting to a closed port.
var ErrPortClosed = errors.New("port closed")

const portBuffer = 16

// Port is one end of a bidirectional message channel.
type Port struct {
	in  chan []byte
	out chan []byte
	*link
}

type link struct {
	once sync.Once
	done chan struct{}
}

// Pipe returns two connected ports. Closing either end closes both.
func Pipe() (*Port, *Port) {
	ab := make(chan []byte, portBuffer)
	ba := make(chan []byte, portBuffer)
	l := &link{done: make(chan struct{})}
	return &Port{in: ba, out: ab, link: l}, &Port{in: ab, out: ba, link: l}
}

// Post sends msg to the other end.
func (p *Port) Post(ctx context.Context, msg []byte) error {
	select {
	case <-p.done:
		return ErrPortClosed
	default:
	}
	select {
	case p.out <- msg:
		return nil
	case <-p.done:
		return ErrPortClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// C delivers messages from the other end. It is never closed; select on
// Done as well.
func (p *Port) C() <-chan []byte { return p.in }

// Done is closed once either end is closed.
func (p *Port) Done() <-chan struct{} { return p.done }

// Close closes both ends. It is safe to call more than once.
func (p *Port) Close() {
	p.once.Do(func() { close(p.done) })
}
