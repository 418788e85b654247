// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/chatbundle/internal/typst"
)

// DefaultTimeout bounds one compile call.
const DefaultTimeout = 30 * time.Second

// HostFactory creates a connected host.
type HostFactory func() (*Host, error)

// Controller issues compile calls. It keeps exactly one live host and
// recreates it after the previous one stops.
type Controller struct {
	newHost HostFactory
	timeout time.Duration
	loader  string
	log     *slog.Logger

	mu    sync.Mutex
	host  *Host
	group singleflight.Group
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets the per-call timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLoader sets the loader passed to the engine on every command.
func WithLoader(loader string) Option {
	return func(c *Controller) { c.loader = loader }
}

// WithLogger sets the controller's logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// NewController creates a controller that obtains hosts from newHost.
func NewController(newHost HostFactory, opts ...Option) *Controller {
	c := &Controller{
		newHost: newHost,
		timeout: DefaultTimeout,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "relay-controller")
	return c
}

// LocalHost returns a HostFactory whose hosts talk to a sandbox running
// engine on a goroutine of this process.
func LocalHost(engine typst.Engine, log *slog.Logger) HostFactory {
	return func() (*Host, error) {
		if engine == nil {
			return nil, errors.New("no compile engine")
		}
		hostEnd, sandboxEnd := Pipe()
		go func() {
			if err := RunSandbox(context.Background(), sandboxEnd, engine, log); err != nil && log != nil {
				log.Warn("sandbox stopped", "err", err)
			}
		}()
		return NewHost(hostEnd, log), nil
	}
}

// Compile sends source with its assets and optional font to the sandbox
// and returns the compiled PDF. Failures are *Error values, except that a
// cancelled or expired ctx returns ctx.Err().
func (c *Controller) Compile(ctx context.Context, source string, assets map[string][]byte, font []byte) ([]byte, error) {
	host, err := c.ensureHost()
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "starting host", Err: err}
	}

	id := uuid.NewString()
	msg := marshal(newCommand(id, source, assets, font, c.loader))

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := host.Deliver(callCtx, msg)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			c.log.Warn("compile timed out", "id", id, "timeout", c.timeout)
			return nil, &Error{
				Kind:    KindTimeout,
				Message: fmt.Sprintf("compilation timed out (%s)", c.timeout),
				Err:     err,
			}
		}
		var re *Error
		if errors.As(err, &re) {
			return nil, re
		}
		return nil, &Error{Kind: KindTransport, Message: "delivering command", Err: err}
	}

	pdf, err := decodeReply(raw)
	if err != nil {
		c.log.Warn("compile failed", "id", id, "err", err)
		return nil, err
	}
	c.log.Debug("compile finished", "id", id, "bytes", len(pdf), "elapsed", time.Since(start))
	return pdf, nil
}

// Close stops the current host, if any.
func (c *Controller) Close() {
	c.mu.Lock()
	h := c.host
	c.host = nil
	c.mu.Unlock()
	if h != nil {
		h.Close()
	}
}

// ensureHost returns the live host, creating one if needed. Concurrent
// callers share a single creation.
func (c *Controller) ensureHost() (*Host, error) {
	if h := c.liveHost(); h != nil {
		return h, nil
	}
	v, err, _ := c.group.Do("host", func() (any, error) {
		if h := c.liveHost(); h != nil {
			return h, nil
		}
		h, err := c.newHost()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.host = h
		c.mu.Unlock()
		c.log.Debug("host started")
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Host), nil
}

func (c *Controller) liveHost() *Host {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.host != nil && !c.host.closed() {
		return c.host
	}
	return nil
}

func decodeReply(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, &Error{Kind: KindUnknown, Message: "empty reply"}
	}
	var r Reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "malformed reply", Err: err}
	}
	if !r.Success {
		return nil, compileFailure(r.Error)
	}
	if r.Data == "" {
		return nil, &Error{Kind: KindUnknown, Message: "reply carries no data"}
	}
	pdf, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "undecodable reply data", Err: err}
	}
	return pdf, nil
}
