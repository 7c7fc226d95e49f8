package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftpress/driftpress/internal/store/storetest"
	"github.com/driftpress/driftpress/internal/tools"
)

func newTestEngine(t *testing.T) (*Engine, *bytes.Buffer) {
	t.Helper()
	registry := tools.NewRegistry(storetest.OpenSeeded(t))
	out := &bytes.Buffer{}
	return NewEngine(registry, "test", out, log.New(io.Discard)), out
}

// request frames a JSON-RPC request body.
func request(t *testing.T, id any, method string, params any) []byte {
	t.Helper()
	msg := map[string]any{"jsonrpc": Version, "method": method}
	if id != nil {
		msg["id"] = id
	}
	if params != nil {
		msg["params"] = params
	}
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, body))
	return buf.Bytes()
}

// responses deframes and decodes every reply written to out.
func responses(t *testing.T, out *bytes.Buffer) []Response {
	t.Helper()
	var f Framer
	f.Append(out.Bytes())

	var resps []Response
	for {
		body, err := f.Next()
		require.NoError(t, err, "reply stream must be cleanly framed")
		if body == nil {
			break
		}
		var resp Response
		require.NoError(t, json.Unmarshal(body, &resp))
		resps = append(resps, resp)
	}
	require.False(t, f.Pending(), "reply stream ended mid-frame")
	return resps
}

// callResult decodes the result member of a successful response.
func callResult(t *testing.T, resp Response) map[string]any {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected protocol error: %+v", resp.Error)
	data, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestEngine_Initialize(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 1, MethodInitialize, map[string]any{})))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	assert.Equal(t, Version, resps[0].JSONRPC)
	assert.Equal(t, json.RawMessage("1"), resps[0].ID)

	result := callResult(t, resps[0])
	assert.Equal(t, ProtocolVersion, result["protocolVersion"])
	info := result["serverInfo"].(map[string]any)
	assert.Equal(t, ServerName, info["name"])
	assert.Equal(t, "test", info["version"])
}

func TestEngine_Ping(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, "p-1", MethodPing, nil)))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	assert.Equal(t, json.RawMessage(`"p-1"`), resps[0].ID)
	assert.Nil(t, resps[0].Error)
}

func TestEngine_ToolsList(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 2, MethodToolsList, nil)))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	result := callResult(t, resps[0])
	list := result["tools"].([]any)
	assert.Len(t, list, 8)
	first := list[0].(map[string]any)
	assert.Equal(t, "list_posts", first["name"])
	assert.NotNil(t, first["inputSchema"])
}

func TestEngine_UnknownMethod(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 3, "resources/list", nil)))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, CodeMethodNotFound, resps[0].Error.Code)
	assert.Equal(t, json.RawMessage("3"), resps[0].ID)
}

func TestEngine_NotificationGetsNoReply(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, nil, "notifications/initialized", nil)))
	assert.Zero(t, out.Len(), "notifications must not produce output")
}

func TestEngine_ToolsCall(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 4, MethodToolsCall, map[string]any{
		"name":      "list_posts",
		"arguments": map[string]any{},
	})))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	result := callResult(t, resps[0])
	assert.Nil(t, result["isError"])
	structured := result["structuredContent"].(map[string]any)
	assert.Equal(t, float64(3), structured["total"])
}

func TestEngine_ToolsCall_ToolErrorIsNotProtocolError(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 5, MethodToolsCall, map[string]any{
		"name":      "get_post",
		"arguments": map[string]any{"id": 9999},
	})))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	result := callResult(t, resps[0])
	assert.Equal(t, true, result["isError"])
}

func TestEngine_ToolsCall_UnknownTool(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 6, MethodToolsCall, map[string]any{
		"name": "no_such_tool",
	})))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	result := callResult(t, resps[0])
	assert.Equal(t, true, result["isError"])
}

func TestEngine_ToolsCall_MissingName(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 7, MethodToolsCall, map[string]any{})))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, CodeInvalidParams, resps[0].Error.Code)
}

func TestEngine_ToolsCall_UnusableParams(t *testing.T) {
	e, out := newTestEngine(t)

	require.NoError(t, e.Feed(request(t, 8, MethodToolsCall, []any{"positional"})))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	require.NotNil(t, resps[0].Error)
	assert.Equal(t, CodeInvalidParams, resps[0].Error.Code)
}

func TestEngine_UnparseableBodySkipped(t *testing.T) {
	e, out := newTestEngine(t)

	var stream bytes.Buffer
	require.NoError(t, WriteFrame(&stream, []byte("this is not json")))
	stream.Write(request(t, 9, MethodPing, nil))

	require.NoError(t, e.Feed(stream.Bytes()))

	resps := responses(t, out)
	require.Len(t, resps, 1, "the bad body is skipped, the next request still answers")
	assert.Equal(t, json.RawMessage("9"), resps[0].ID)
}

func TestEngine_MalformedHeaderSkipped(t *testing.T) {
	e, out := newTestEngine(t)

	stream := []byte("garbage header line\r\n\r\n")
	stream = append(stream, request(t, 10, MethodPing, nil)...)

	require.NoError(t, e.Feed(stream))

	resps := responses(t, out)
	require.Len(t, resps, 1)
	assert.Equal(t, json.RawMessage("10"), resps[0].ID)
}

// The engine's output must not depend on how the input stream is chunked.
func TestEngine_ChunkingInvariance(t *testing.T) {
	buildStream := func(t *testing.T) []byte {
		var stream []byte
		stream = append(stream, request(t, 1, MethodInitialize, map[string]any{})...)
		stream = append(stream, request(t, 2, MethodToolsCall, map[string]any{
			"name":      "get_post",
			"arguments": map[string]any{"id": 100},
		})...)
		stream = append(stream, request(t, 3, MethodPing, nil)...)
		return stream
	}

	whole, wholeOut := newTestEngine(t)
	stream := buildStream(t)
	require.NoError(t, whole.Feed(stream))
	want := responses(t, wholeOut)
	require.Len(t, want, 3)

	// Split inside the second request's body.
	split := len(stream) / 2
	chunked, chunkedOut := newTestEngine(t)
	require.NoError(t, chunked.Feed(stream[:split]))
	require.NoError(t, chunked.Feed(stream[split:]))

	got := responses(t, chunkedOut)
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
	}
	assert.False(t, chunked.PendingInput())
}
