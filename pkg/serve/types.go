package serve

import "encoding/json"

// Request represents an incoming NDJSON request
type Request struct {
	Type    string          `json:"type"` // "compile" | "imports" | "reset_imports" | "close"
	Payload json.RawMessage `json:"payload"`
}

// CompilePayload is the payload for "compile" requests
type CompilePayload struct {
	Source    string `json:"source"`
	FileName  string `json:"file_name"`
	SourceMap bool   `json:"source_map,omitempty"`
}

// CompileResult is the data field for successful "compile" responses.
// Imports is the ledger since the last "reset_imports".
type CompileResult struct {
	CSS     string          `json:"css"`
	Map     json.RawMessage `json:"map,omitempty"`
	Imports []string        `json:"imports"`
}

// ImportsResult is the data field for "imports" responses
type ImportsResult struct {
	Imports []string `json:"imports"`
}

// Response represents an outgoing NDJSON response
type Response struct {
	Success bool            `json:"success"`
	Type    string          `json:"type"` // "ready" | "compile" | "imports" | "reset_imports" | "decode" | "unknown"
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ReadyData is the data field for "ready" responses
type ReadyData struct {
	Version string `json:"version"`
}
