// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Host sits between the controller and the sandbox. Commands delivered
// before the sandbox signals readiness are queued and replayed in order.
// All host state is owned by one event-loop goroutine.
type Host struct {
	port       *Port
	deliveries chan delivery
	expiries   chan string
	counts     chan chan int
	done       chan struct{}
	log        *slog.Logger
}

type delivery struct {
	id    string
	msg   []byte
	reply chan<- hostReply
}

type hostReply struct {
	data []byte
	err  error
}

// NewHost starts a host that forwards commands to the sandbox on port.
func NewHost(port *Port, log *slog.Logger) *Host {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := &Host{
		port:       port,
		deliveries: make(chan delivery),
		expiries:   make(chan string),
		counts:     make(chan chan int),
		done:       make(chan struct{}),
		log:        log.With("component", "relay-host"),
	}
	go h.run()
	return h
}

// Deliver forwards a JSON compile command and waits for the JSON reply.
// If ctx ends first, the command's slot is expired and any later reply is
// dropped.
func (h *Host) Deliver(ctx context.Context, msg []byte) ([]byte, error) {
	var cmd Command
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "malformed command", Err: err}
	}
	if cmd.Action != ActionCompile || cmd.ID == "" {
		return nil, &Error{Kind: KindUnknown, Message: fmt.Sprintf("unsupported command %q", cmd.Action)}
	}

	reply := make(chan hostReply, 1)
	select {
	case h.deliveries <- delivery{id: cmd.ID, msg: msg, reply: reply}:
	case <-h.done:
		return nil, &Error{Kind: KindTransport, Message: "host closed"}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.data, r.err
	case <-ctx.Done():
		select {
		case h.expiries <- cmd.ID:
		case <-h.done:
		}
		return nil, ctx.Err()
	}
}

// Close disconnects the sandbox and waits for the event loop to exit.
func (h *Host) Close() {
	h.port.Close()
	<-h.done
}

// Done is closed when the host has stopped.
func (h *Host) Done() <-chan struct{} { return h.done }

// pendingCount reports how many commands are still waiting for a reply.
func (h *Host) pendingCount() int {
	ch := make(chan int, 1)
	select {
	case h.counts <- ch:
		return <-ch
	case <-h.done:
		return 0
	}
}

func (h *Host) closed() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Host) run() {
	pending := newPendingTable[chan<- hostReply]()
	var readiness gate[[]byte]
	forward := func(msg []byte) {
		if err := h.port.Post(context.Background(), msg); err != nil {
			h.log.Warn("forwarding command to sandbox", "err", err)
		}
	}

	defer func() {
		for _, reply := range pending.drain() {
			reply <- hostReply{err: &Error{Kind: KindTransport, Message: "sandbox disconnected"}}
		}
		close(h.done)
	}()

	for {
		select {
		case d := <-h.deliveries:
			pending.put(d.id, d.reply)
			if readiness.ready {
				h.log.Debug("forwarding command", "id", d.id)
			} else {
				h.log.Debug("queueing command until sandbox is ready", "id", d.id)
			}
			readiness.do(d.msg, forward)

		case id := <-h.expiries:
			if pending.expire(id) {
				h.log.Debug("expired pending command", "id", id)
			}

		case ch := <-h.counts:
			ch <- pending.len()

		case msg := <-h.port.C():
			var res Result
			if err := json.Unmarshal(msg, &res); err != nil {
				h.log.Warn("dropping malformed sandbox message", "err", err)
				continue
			}
			switch res.Action {
			case ActionReady:
				n := readiness.queued()
				if readiness.open(forward) {
					h.log.Debug("sandbox ready", "replayed", n)
				}
			case ActionResult:
				reply, ok := pending.take(res.ID)
				if !ok {
					h.log.Debug("dropping reply for unknown id", "id", res.ID)
					continue
				}
				reply <- hostReply{data: marshal(res.reply())}
			default:
				h.log.Warn("dropping sandbox message", "action", res.Action)
			}

		case <-h.port.Done():
			return
		}
	}
}
