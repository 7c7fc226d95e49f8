// Tool-call result envelope. Tool failures ride a successful JSON-RPC
// response with IsError set, so callers can tell "your input was rejected"
// from "the protocol broke".
package tools

import (
	"encoding/json"
	"fmt"
)

// CallResult is the payload returned for every tools/call request.
type CallResult struct {
	Content           []ContentItem `json:"content"`
	StructuredContent any           `json:"structuredContent,omitempty"`
	IsError           bool          `json:"isError,omitempty"`
}

// ContentItem is one element of a result's content list.
type ContentItem struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// textResult wraps v, JSON-encoded, in a success envelope. v is also carried
// as structured content so callers do not have to re-parse the text.
func textResult(v any) (CallResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return CallResult{}, fmt.Errorf("encoding result: %w", err)
	}
	return CallResult{
		Content:           []ContentItem{{Type: "text", Text: string(data)}},
		StructuredContent: v,
	}, nil
}

// errorResult wraps a message in an error envelope.
func errorResult(msg string) CallResult {
	return CallResult{
		Content: []ContentItem{{Type: "text", Text: msg}},
		IsError: true,
	}
}

// callError is a handler failure carrying optional machine-usable detail,
// such as the invalid id partition of a rejected term replacement.
type callError struct {
	msg    string
	detail any
}

func (e *callError) Error() string { return e.msg }
