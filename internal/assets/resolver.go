// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assets resolves image references into byte buffers and infers
// their file extensions. Captured inline payloads take precedence over
// network fetches; every distinct reference is resolved concurrently and a
// failure affects only its own asset.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/pdiddy/chatbundle/internal/httputil"
	"github.com/pdiddy/chatbundle/pkg/types"
)

const defaultMaxAssetBytes = 32 << 20

// Resolver fetches and decodes image assets.
type Resolver struct {
	client  *http.Client
	http    types.HTTPConfig
	cfg     types.ResolveConfig
	headers http.Header
	limiter *rate.Limiter
	log     *slog.Logger
}

// Option customises a Resolver.
type Option func(*Resolver)

// WithHeaders attaches extra headers (cookies, auth) to every remote fetch.
func WithHeaders(h http.Header) Option {
	return func(r *Resolver) { r.headers = h.Clone() }
}

// WithLogger sets the logger used for per-asset failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a Resolver using client for remote fetches.
func NewResolver(client *http.Client, httpCfg types.HTTPConfig, cfg types.ResolveConfig, opts ...Option) *Resolver {
	if cfg.MaxAssetBytes <= 0 {
		cfg.MaxAssetBytes = defaultMaxAssetBytes
	}
	r := &Resolver{
		client:  client,
		http:    httpCfg,
		cfg:     cfg,
		headers: http.Header{},
		log:     slog.New(slog.DiscardHandler),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve resolves every distinct reference in refs. A reference with an
// entry in local is decoded from that payload and never fetched. The
// returned map is partial: references that failed are absent, and their
// failures are logged. Resolve returns only after every attempt settles.
func (r *Resolver) Resolve(ctx context.Context, refs []string, local map[string]string) map[string]types.ResolvedBuffer {
	type outcome struct {
		buf types.ResolvedBuffer
		ok  bool
	}

	p := pool.NewWithResults[outcome]()
	if r.cfg.MaxConcurrent > 0 {
		p = p.WithMaxGoroutines(r.cfg.MaxConcurrent)
	}

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if seen[ref] {
			continue
		}
		seen[ref] = true

		p.Go(func() outcome {
			buf, err := r.resolveOne(ctx, ref, local)
			if err != nil {
				r.log.Warn("asset resolution failed", "url", ShortRef(ref), "err", err)
				return outcome{}
			}
			r.log.Debug("asset resolved", "url", ShortRef(ref), "bytes", len(buf.Bytes), "ext", buf.Extension, "local", buf.Local)
			return outcome{buf: buf, ok: true}
		})
	}

	out := make(map[string]types.ResolvedBuffer, len(seen))
	for _, o := range p.Wait() {
		if o.ok {
			out[o.buf.URL] = o.buf
		}
	}
	return out
}

func (r *Resolver) resolveOne(ctx context.Context, ref string, local map[string]string) (types.ResolvedBuffer, error) {
	if payload, ok := local[ref]; ok {
		return resolveInline(ref, payload)
	}
	if IsDataURL(ref) {
		return resolveInline(ref, ref)
	}
	return r.fetch(ctx, ref)
}

func resolveInline(ref, payload string) (types.ResolvedBuffer, error) {
	mediaType, body, err := ParseDataURL(payload)
	if err != nil {
		return types.ResolvedBuffer{}, fmt.Errorf("decoding local payload: %w", err)
	}
	return types.ResolvedBuffer{
		URL:       ref,
		Bytes:     body,
		MediaType: mediaType,
		Extension: ExtensionForMediaType(mediaType),
		Local:     true,
	}, nil
}

func (r *Resolver) fetch(ctx context.Context, ref string) (types.ResolvedBuffer, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return types.ResolvedBuffer{}, fmt.Errorf("parsing URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return types.ResolvedBuffer{}, fmt.Errorf("unsupported scheme %q without local payload", u.Scheme)
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return types.ResolvedBuffer{}, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return types.ResolvedBuffer{}, fmt.Errorf("creating request: %w", err)
	}
	for k, vs := range r.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.http.UserAgent != "" {
		req.Header.Set("User-Agent", r.http.UserAgent)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := httputil.DoWithRetry(ctx, r.client, req, r.cfg.MaxRetries, r.log)
	if err != nil {
		return types.ResolvedBuffer{}, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return types.ResolvedBuffer{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.cfg.MaxAssetBytes+1))
	if err != nil {
		return types.ResolvedBuffer{}, fmt.Errorf("reading body: %w", err)
	}
	if int64(len(body)) > r.cfg.MaxAssetBytes {
		return types.ResolvedBuffer{}, fmt.Errorf("asset exceeds %d bytes", r.cfg.MaxAssetBytes)
	}

	mediaType := resp.Header.Get("Content-Type")
	return types.ResolvedBuffer{
		URL:       ref,
		Bytes:     body,
		MediaType: strings.TrimSpace(mediaType),
		Extension: ExtensionForMediaType(mediaType),
	}, nil
}

// Extensions projects resolved buffers onto the URL→extension map the
// renderer's filename table consumes.
func Extensions(resolved map[string]types.ResolvedBuffer) map[string]string {
	out := make(map[string]string, len(resolved))
	for ref, buf := range resolved {
		out[ref] = buf.Extension
	}
	return out
}
