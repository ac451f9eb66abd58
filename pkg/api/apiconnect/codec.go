// Package apiconnect wires the splitledger.v1 services to connectrpc.
//
// The services are declared by hand: each has a handler interface, a
// constructor returning the mount path and http.Handler, and a client.
// All of them speak JSON through Codec.
package apiconnect

import (
	"encoding/json"
	"fmt"
)

// Codec encodes api messages as JSON. It is registered under the "json"
// name so it serves application/json and application/connect+json.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal into %T: %w", msg, err)
	}
	return nil
}
