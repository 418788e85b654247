// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandBytes(t *testing.T, id string) []byte {
	t.Helper()
	return marshal(newCommand(id, "= "+id, nil, nil, ""))
}

type deliverResult struct {
	data []byte
	err  error
}

func deliverAsync(ctx context.Context, h *Host, msg []byte) <-chan deliverResult {
	out := make(chan deliverResult, 1)
	go func() {
		data, err := h.Deliver(ctx, msg)
		out <- deliverResult{data, err}
	}()
	return out
}

// recvCommand reads the next command reaching the sandbox end.
func recvCommand(t *testing.T, p *Port) Command {
	t.Helper()
	select {
	case msg := <-p.C():
		var cmd Command
		require.NoError(t, json.Unmarshal(msg, &cmd))
		return cmd
	case <-time.After(2 * time.Second):
		t.Fatal("no command reached the sandbox")
		return Command{}
	}
}

func assertNoCommand(t *testing.T, p *Port) {
	t.Helper()
	select {
	case msg := <-p.C():
		t.Fatalf("unexpected command: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func post(t *testing.T, p *Port, r Result) {
	t.Helper()
	require.NoError(t, p.Post(context.Background(), marshal(r)))
}

func waitResult(t *testing.T, ch <-chan deliverResult) deliverResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("delivery did not return")
		return deliverResult{}
	}
}

func TestHost_QueuesUntilReady(t *testing.T) {
	hostEnd, sandbox := Pipe()
	h := NewHost(hostEnd, nil)
	defer h.Close()

	ctx := context.Background()
	first := deliverAsync(ctx, h, commandBytes(t, "a"))
	assertNoCommand(t, sandbox)

	post(t, sandbox, Result{Action: ActionReady})
	cmd := recvCommand(t, sandbox)
	assert.Equal(t, "a", cmd.ID)

	// Post-readiness commands are forwarded immediately.
	second := deliverAsync(ctx, h, commandBytes(t, "b"))
	assert.Equal(t, "b", recvCommand(t, sandbox).ID)

	post(t, sandbox, Result{Action: ActionResult, ID: "b", Success: true, Data: "Yg=="})
	post(t, sandbox, Result{Action: ActionResult, ID: "a", Success: true, Data: "YQ=="})

	r := waitResult(t, first)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"success":true,"data":"YQ=="}`, string(r.data))

	r = waitResult(t, second)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"success":true,"data":"Yg=="}`, string(r.data))
}

func TestHost_SecondReadyIsNoOp(t *testing.T) {
	hostEnd, sandbox := Pipe()
	h := NewHost(hostEnd, nil)
	defer h.Close()

	res := deliverAsync(context.Background(), h, commandBytes(t, "a"))
	assertNoCommand(t, sandbox)
	post(t, sandbox, Result{Action: ActionReady})
	assert.Equal(t, "a", recvCommand(t, sandbox).ID)

	post(t, sandbox, Result{Action: ActionReady})
	assertNoCommand(t, sandbox)

	post(t, sandbox, Result{Action: ActionResult, ID: "a", Success: true, Data: "YQ=="})
	require.NoError(t, waitResult(t, res).err)
}

func TestHost_DropsUnknownAndRepeatedIDs(t *testing.T) {
	hostEnd, sandbox := Pipe()
	h := NewHost(hostEnd, nil)
	defer h.Close()
	post(t, sandbox, Result{Action: ActionReady})

	res := deliverAsync(context.Background(), h, commandBytes(t, "a"))
	recvCommand(t, sandbox)

	post(t, sandbox, Result{Action: ActionResult, ID: "nobody", Success: true, Data: "eA=="})
	require.NoError(t, sandbox.Post(context.Background(), []byte("not json")))
	post(t, sandbox, Result{Action: ActionResult, ID: "a", Success: false, Error: "boom"})
	post(t, sandbox, Result{Action: ActionResult, ID: "a", Success: true, Data: "YQ=="})

	r := waitResult(t, res)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"success":false,"error":"boom"}`, string(r.data))
}

func TestHost_TimeoutExpiresSlot(t *testing.T) {
	hostEnd, sandbox := Pipe()
	h := NewHost(hostEnd, nil)
	defer h.Close()
	post(t, sandbox, Result{Action: ActionReady})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := h.Deliver(ctx, commandBytes(t, "slow"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	recvCommand(t, sandbox)
	assert.Equal(t, 0, h.pendingCount(), "timed-out id must free its slot")

	// The late reply is discarded and the host keeps serving.
	post(t, sandbox, Result{Action: ActionResult, ID: "slow", Success: true, Data: "YQ=="})
	res := deliverAsync(context.Background(), h, commandBytes(t, "next"))
	assert.Equal(t, "next", recvCommand(t, sandbox).ID)
	assert.Equal(t, 1, h.pendingCount())
	post(t, sandbox, Result{Action: ActionResult, ID: "next", Success: true, Data: "bg=="})
	r := waitResult(t, res)
	require.NoError(t, r.err)
	assert.JSONEq(t, `{"success":true,"data":"bg=="}`, string(r.data))
	assert.Equal(t, 0, h.pendingCount())
}

func TestHost_TimeoutBeforeReadyFreesSlot(t *testing.T) {
	hostEnd, _ := Pipe()
	h := NewHost(hostEnd, nil)
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := h.Deliver(ctx, commandBytes(t, "queued"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, h.pendingCount())
}

func TestHost_ClosedPortFailsPending(t *testing.T) {
	hostEnd, sandbox := Pipe()
	h := NewHost(hostEnd, nil)

	res := deliverAsync(context.Background(), h, commandBytes(t, "a"))
	assertNoCommand(t, sandbox)
	sandbox.Close()

	r := waitResult(t, res)
	assert.True(t, errors.Is(r.err, ErrTransport), "got %v", r.err)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("host did not stop")
	}

	_, err := h.Deliver(context.Background(), commandBytes(t, "b"))
	assert.ErrorIs(t, err, ErrTransport)
}

func TestHost_RejectsMalformedCommand(t *testing.T) {
	hostEnd, _ := Pipe()
	h := NewHost(hostEnd, nil)
	defer h.Close()

	_, err := h.Deliver(context.Background(), []byte("{"))
	assert.ErrorIs(t, err, ErrUnknown)

	_, err = h.Deliver(context.Background(), []byte(`{"action":"compile"}`))
	assert.ErrorIs(t, err, ErrUnknown)
}
