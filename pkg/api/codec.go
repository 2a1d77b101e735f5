// Package api defines the request and response messages of the Hisaab Dost
// RPC services. Messages are plain Go structs sent as JSON over Connect.
package api

import "encoding/json"

// Codec marshals messages as JSON. It registers under Connect's "json" name,
// replacing the protobuf-JSON codec, so plain HTTP+JSON clients work unchanged.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
