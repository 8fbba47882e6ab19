package models

// NodeExecutionData is one item flowing through a node port.
type NodeExecutionData struct {
	JSON     any            `json:"json"`
	Binary   map[string]any `json:"binary,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NodeExecutionResult is what a handler returns. OutputData is an output
// port model: outer index is the port, inner slice the items on that port.
// The baseline engine populates port 0 with a single item; the shape allows
// future multi-output fan-out.
type NodeExecutionResult struct {
	OutputData [][]NodeExecutionData `json:"output_data"`
	Next       string                `json:"next,omitempty"`        // handler-directed successor, overrides static links
	OutputPort string                `json:"output_port,omitempty"` // connections-table label, defaults to "main"
	Paused     bool                  `json:"paused,omitempty"`
	Metadata   map[string]any        `json:"metadata,omitempty"`
}

// SingleOutput wraps a single JSON value as port-0 output data.
func SingleOutput(json any, metadata map[string]any) [][]NodeExecutionData {
	return [][]NodeExecutionData{{{JSON: json, Metadata: metadata}}}
}

// Primary returns the first item on port 0, or nil.
func (r *NodeExecutionResult) Primary() any {
	if len(r.OutputData) == 0 || len(r.OutputData[0]) == 0 {
		return nil
	}

	return r.OutputData[0][0].JSON
}

// Port returns the connections-table label for successor lookup.
func (r *NodeExecutionResult) Port() string {
	if r.OutputPort == "" {
		return "main"
	}

	return r.OutputPort
}
