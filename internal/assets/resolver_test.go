// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chatbundle/pkg/types"
)

var testHTTP = types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "chatbundle-test"}

func newTestResolver(ts *httptest.Server, cfg types.ResolveConfig, opts ...Option) *Resolver {
	cfg.MaxRetries = 1
	return NewResolver(ts.Client(), testHTTP, cfg, opts...)
}

func TestResolve_RemoteAssets(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chatbundle-test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/a.webp":
			w.Header().Set("Content-Type", "image/webp")
			w.Write([]byte("webp-bytes"))
		case "/b":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("jpeg-bytes"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write([]byte("other"))
		}
	}))
	defer ts.Close()

	r := newTestResolver(ts, types.ResolveConfig{})
	got := r.Resolve(context.Background(), []string{
		ts.URL + "/a.webp",
		ts.URL + "/b",
		ts.URL + "/missing",
		ts.URL + "/unknown",
	}, nil)

	require.Len(t, got, 3)
	assert.Equal(t, "webp", got[ts.URL+"/a.webp"].Extension)
	assert.Equal(t, []byte("webp-bytes"), got[ts.URL+"/a.webp"].Bytes)
	assert.Equal(t, "jpg", got[ts.URL+"/b"].Extension)
	assert.Equal(t, "png", got[ts.URL+"/unknown"].Extension)
	assert.NotContains(t, got, ts.URL+"/missing")
}

func TestResolve_LocalPayloadTakesPrecedence(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("remote"))
	}))
	defer ts.Close()

	shared := ts.URL + "/shared.png"
	conv := types.ConversationExport{
		Messages: []types.Message{
			{Role: types.RoleUser, Images: []string{shared}, LocalPayloads: []types.LocalPayload{
				{URL: shared, Data: "data:image/gif;base64,bG9jYWw="},
			}},
			{Role: types.RoleModel, Images: []string{shared}},
		},
	}

	r := newTestResolver(ts, types.ResolveConfig{})
	got := r.Resolve(context.Background(), conv.ImageURLs(), conv.LocalPayloads())

	require.Len(t, got, 1)
	assert.Equal(t, []byte("local"), got[shared].Bytes)
	assert.Equal(t, "gif", got[shared].Extension)
	assert.True(t, got[shared].Local)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestResolve_DataURLReferenceWithoutPayload(t *testing.T) {
	r := NewResolver(http.DefaultClient, testHTTP, types.ResolveConfig{})
	ref := "data:image/jpeg;base64,aGVsbG8="
	got := r.Resolve(context.Background(), []string{ref}, nil)

	require.Contains(t, got, ref)
	assert.Equal(t, "jpg", got[ref].Extension)
	assert.Equal(t, []byte("hello"), got[ref].Bytes)
}

func TestResolve_FailuresAreIsolated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("ok"))
	}))
	defer ts.Close()

	r := newTestResolver(ts, types.ResolveConfig{})
	got := r.Resolve(context.Background(), []string{
		ts.URL + "/boom",
		"blob:https://chat.example/1234",
		ts.URL + "/fine",
		ts.URL + "/bad-local",
	}, map[string]string{ts.URL + "/bad-local": "not a data url"})

	require.Len(t, got, 1)
	assert.Contains(t, got, ts.URL+"/fine")
}

func TestResolve_OversizedAssetRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(make([]byte, 64))
	}))
	defer ts.Close()

	r := newTestResolver(ts, types.ResolveConfig{MaxAssetBytes: 16})
	got := r.Resolve(context.Background(), []string{ts.URL + "/big"}, nil)
	assert.Empty(t, got)
}

func TestResolve_ConcurrentFetches(t *testing.T) {
	// Every handler blocks until all three requests have arrived, so the
	// call only completes if the fetches run concurrently.
	const n = 3
	var wg sync.WaitGroup
	wg.Add(n)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		wg.Done()
		wg.Wait()
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	r := newTestResolver(ts, types.ResolveConfig{})
	done := make(chan map[string]types.ResolvedBuffer, 1)
	go func() {
		done <- r.Resolve(context.Background(), []string{ts.URL + "/1", ts.URL + "/2", ts.URL + "/3"}, nil)
	}()

	select {
	case got := <-done:
		assert.Len(t, got, n)
	case <-time.After(5 * time.Second):
		t.Fatal("Resolve did not fetch assets concurrently")
	}
}

func TestResolve_DeduplicatesReferences(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	r := newTestResolver(ts, types.ResolveConfig{MaxConcurrent: 2})
	ref := ts.URL + "/same"
	got := r.Resolve(context.Background(), []string{ref, ref, ref}, nil)

	assert.Len(t, got, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResolve_SendsCustomHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Cookie") != "session=1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte("x"))
	}))
	defer ts.Close()

	h := http.Header{}
	h.Set("Cookie", "session=1")
	r := newTestResolver(ts, types.ResolveConfig{}, WithHeaders(h))
	got := r.Resolve(context.Background(), []string{ts.URL + "/private"}, nil)
	assert.Len(t, got, 1)
}

func TestExtensions(t *testing.T) {
	got := Extensions(map[string]types.ResolvedBuffer{
		"a": {URL: "a", Extension: "jpg"},
		"b": {URL: "b", Extension: "webp"},
	})
	assert.Equal(t, map[string]string{"a": "jpg", "b": "webp"}, got)
}
