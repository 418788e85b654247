// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relay carries compile requests from a controller through a
// display host to an isolated sandbox that owns the Typst engine, and
// carries the result back. Each hop speaks JSON; binary payloads travel as
// base64 strings and calls are matched by correlation id.
package relay

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Action names the kind of a relay message.
type Action string

const (
	ActionCompile Action = "compile"
	ActionResult  Action = "result"
	ActionReady   Action = "ready"
)

// Command asks the sandbox to compile Source. Assets maps a virtual path
// to base64 bytes; Font is base64 or empty.
type Command struct {
	Action    Action            `json:"action"`
	Source    string            `json:"source"`
	Assets    map[string]string `json:"assets"`
	Font      string            `json:"font"`
	LoaderURL string            `json:"loaderUrl"`
	ID        string            `json:"id"`
}

// Reply is what the host returns to the controller for one command.
type Reply struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is posted by the sandbox to the host. A readiness signal is a
// Result with only Action set.
type Result struct {
	Action  Action `json:"action"`
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success,omitempty"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r Result) reply() Reply {
	return Reply{Success: r.Success, Data: r.Data, Error: r.Error}
}

// newCommand encodes source, assets and font into a compile command.
func newCommand(id, source string, assets map[string][]byte, font []byte, loader string) Command {
	enc := make(map[string]string, len(assets))
	for p, b := range assets {
		enc[p] = base64.StdEncoding.EncodeToString(b)
	}
	cmd := Command{
		Action:    ActionCompile,
		Source:    source,
		Assets:    enc,
		LoaderURL: loader,
		ID:        id,
	}
	if len(font) > 0 {
		cmd.Font = base64.StdEncoding.EncodeToString(font)
	}
	return cmd
}

func marshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Only string, bool and map[string]string fields are encoded.
		panic(fmt.Sprintf("relay: encoding %T: %v", v, err))
	}
	return data
}
