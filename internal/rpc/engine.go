// The dispatch engine: frames in, routed method calls, framed replies out.
package rpc

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/driftpress/driftpress/internal/tools"
)

// Server identity reported by the handshake.
const (
	ServerName      = "driftpress-tools"
	ProtocolVersion = "2024-11-05"
)

// Protocol method names.
const (
	MethodInitialize = "initialize"
	MethodPing       = "ping"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// Engine deframes input, dispatches requests, and writes framed replies.
// Diagnostics go to the logger (stderr), never to the reply stream.
type Engine struct {
	registry *tools.Registry
	version  string
	out      io.Writer
	logger   *log.Logger
	framer   Framer
}

// NewEngine creates an engine writing replies to out. version is the server
// build version reported by the handshake.
func NewEngine(registry *tools.Registry, version string, out io.Writer, logger *log.Logger) *Engine {
	return &Engine{
		registry: registry,
		version:  version,
		out:      out,
		logger:   logger,
	}
}

// Feed appends one chunk of input and processes every frame that completes.
// Replies are written in arrival order. Only write failures are returned;
// malformed frames are logged and skipped.
func (e *Engine) Feed(chunk []byte) error {
	e.framer.Append(chunk)

	for {
		body, err := e.framer.Next()
		if err != nil {
			e.logger.Warn("dropping malformed frame header", "err", err)
			continue
		}
		if body == nil {
			return nil
		}
		if err := e.dispatchBody(body); err != nil {
			return err
		}
	}
}

// PendingInput reports whether a partial frame remains buffered. Used at
// shutdown to log what gets discarded.
func (e *Engine) PendingInput() bool {
	return e.framer.Pending()
}

// dispatchBody parses one message body and writes the reply, if any.
func (e *Engine) dispatchBody(body []byte) error {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		// A body that is not a request object cannot be answered: there is
		// no id to address the error to. Log and move on.
		e.logger.Warn("discarding unparseable message body", "err", err)
		return nil
	}

	resp := e.handle(&req)
	if resp == nil {
		return nil
	}
	return e.writeResponse(resp)
}

// handle routes one request. Notifications are processed for side effects
// only (none are defined) and yield no response.
func (e *Engine) handle(req *Request) *Response {
	if req.IsNotification() {
		e.logger.Debug("notification received", "method", req.Method)
		return nil
	}

	switch req.Method {
	case MethodInitialize:
		return successResponse(req.ID, e.initializeResult())
	case MethodPing:
		return successResponse(req.ID, struct{}{})
	case MethodToolsList:
		return successResponse(req.ID, map[string]any{
			"tools": e.registry.Catalogue(),
		})
	case MethodToolsCall:
		return e.handleToolsCall(req)
	default:
		return errorResponse(req.ID, CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", req.Method))
	}
}

// initializeResult is the static server metadata for the handshake.
func (e *Engine) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": ProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    ServerName,
			"version": e.version,
		},
	}
}

// toolsCallParams is the params shape of a tools/call request.
type toolsCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// handleToolsCall extracts the tool name and arguments and invokes the
// registry. Handler failures and unknown tool names come back as tool-error
// results inside a success envelope; only unusable params are a protocol
// error.
func (e *Engine) handleToolsCall(req *Request) *Response {
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, CodeInvalidParams,
			fmt.Sprintf("invalid tools/call params: %v", err))
	}
	if params.Name == "" {
		return errorResponse(req.ID, CodeInvalidParams, "tools/call requires a tool name")
	}

	e.logger.Debug("tool call", "tool", params.Name)
	result := e.registry.Call(params.Name, params.Arguments)
	return successResponse(req.ID, result)
}

// writeResponse serializes a response once and writes it framed, sized by
// serialized byte length.
func (e *Engine) writeResponse(resp *Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		// Marshaling our own response types cannot fail on valid data;
		// treat it as an internal error addressed to the same id.
		e.logger.Error("marshaling response", "err", err)
		fallback := errorResponse(resp.ID, CodeInternalError, "internal error")
		body, err = json.Marshal(fallback)
		if err != nil {
			return fmt.Errorf("marshaling fallback response: %w", err)
		}
	}
	if err := WriteFrame(e.out, body); err != nil {
		return fmt.Errorf("writing response frame: %w", err)
	}
	return nil
}
