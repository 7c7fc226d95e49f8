// Package tools implements the tool handlers and the name-to-handler
// registry the protocol engine dispatches into. Each handler is a function
// of (store handle, typed arguments); the store handle is injected at
// registry construction so tests can run isolated instances.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/driftpress/driftpress/internal/store"
	"github.com/driftpress/driftpress/pkg/types"
)

// Tool names. toolOrder enumerates every known name; the dispatch map is
// built from it, so a name missing here simply does not exist.
const (
	ToolListPosts    = "list_posts"
	ToolGetPost      = "get_post"
	ToolUpdatePost   = "update_post"
	ToolUpdateSeo    = "update_seo"
	ToolListTerms    = "list_terms"
	ToolSetPostTerms = "set_post_terms"
	ToolGetStats     = "get_stats"
	ToolGetHistory   = "get_history"
)

var toolOrder = []string{
	ToolListPosts,
	ToolGetPost,
	ToolUpdatePost,
	ToolUpdateSeo,
	ToolListTerms,
	ToolSetPostTerms,
	ToolGetStats,
	ToolGetHistory,
}

// handler executes one tool call against the store with raw (already
// schema-validated) arguments.
type handler func(s *store.Store, raw json.RawMessage) (any, error)

// definition describes one catalogue entry.
type definition struct {
	name        string
	description string
	rawSchema   string
	schema      *jsonschema.Schema
	handle      handler
}

// Info is the catalogue entry shape advertised through tools/list.
type Info struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// Registry holds the store handle and the compiled tool definitions.
type Registry struct {
	store *store.Store
	defs  map[string]*definition
}

// NewRegistry builds the registry for one store handle, compiling every
// advertised input schema. Schema text is static, so compilation failure is
// a programming error and panics at startup.
func NewRegistry(s *store.Store) *Registry {
	r := &Registry{store: s, defs: make(map[string]*definition)}

	add := func(name, description, rawSchema string, h handler) {
		r.defs[name] = &definition{
			name:        name,
			description: description,
			rawSchema:   rawSchema,
			schema:      compileSchema(name, rawSchema),
			handle:      h,
		}
	}

	add(ToolListPosts, "List mirrored posts with optional type, status, dirty, and search filters. Paged.", listPostsSchema, handleListPosts)
	add(ToolGetPost, "Get one post with decoded meta, terms grouped by taxonomy, and plugin data grouped by namespace.", getPostSchema, handleGetPost)
	add(ToolUpdatePost, "Update basic fields and meta entries of a post. Changed values are change-logged and the post is marked dirty.", updatePostSchema, handleUpdatePost)
	add(ToolUpdateSeo, "Merge partial SEO fields into the post's SEO data. Fields not supplied are left unchanged.", updateSeoSchema, handleUpdateSeo)
	add(ToolListTerms, "List taxonomy terms, either for one taxonomy or all terms grouped by taxonomy.", listTermsSchema, handleListTerms)
	add(ToolSetPostTerms, "Replace a post's term assignments for one taxonomy as an atomic set.", setPostTermsSchema, handleSetPostTerms)
	add(ToolGetStats, "Aggregate mirror statistics: totals, dirty count, status and type breakdowns, last sync, recent changes.", getStatsSchema, handleGetStats)
	add(ToolGetHistory, "Most recent change-log entries for a post, newest first.", getHistorySchema, handleGetHistory)

	for _, name := range toolOrder {
		if _, ok := r.defs[name]; !ok {
			panic(fmt.Sprintf("tool %q enumerated but not registered", name))
		}
	}
	if len(r.defs) != len(toolOrder) {
		panic("tool registered outside the known-name enumeration")
	}

	return r
}

// compileSchema compiles one static schema document.
func compileSchema(name, raw string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	url := name + ".schema.json"
	if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("adding schema for %s: %v", name, err))
	}
	return c.MustCompile(url)
}

// Catalogue returns the static tool catalogue in registration order.
func (r *Registry) Catalogue() []Info {
	infos := make([]Info, 0, len(toolOrder))
	for _, name := range toolOrder {
		def := r.defs[name]
		infos = append(infos, Info{
			Name:        def.name,
			Description: def.description,
			InputSchema: json.RawMessage(def.rawSchema),
		})
	}
	return infos
}

// Call validates arguments against the tool's schema, dispatches to the
// handler, and folds every failure into an error envelope. Unknown names,
// handler errors, and handler panics are all tool errors, never protocol
// errors; malformed input on the wire must not crash the process.
func (r *Registry) Call(name string, arguments map[string]any) (result CallResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = errorResult(fmt.Sprintf("%s failed: internal error: %v", name, rec))
		}
	}()
	def, ok := r.defs[name]
	if !ok {
		return errorResult(fmt.Sprintf("unknown tool %q", name))
	}

	if arguments == nil {
		arguments = map[string]any{}
	}
	if err := def.schema.Validate(toValidatable(arguments)); err != nil {
		return errorResult(fmt.Sprintf("invalid arguments for %s: %v", name, err))
	}

	raw, err := json.Marshal(arguments)
	if err != nil {
		return errorResult(fmt.Sprintf("encoding arguments: %v", err))
	}

	payload, err := def.handle(r.store, raw)
	if err != nil {
		var ce *callError
		if errors.As(err, &ce) {
			res := errorResult(ce.msg)
			res.StructuredContent = ce.detail
			return res
		}
		return errorResult(toolErrorMessage(name, err))
	}

	envelope, err := textResult(payload)
	if err != nil {
		return errorResult(toolErrorMessage(name, err))
	}
	return envelope
}

// toValidatable round-trips arguments through JSON so the validator sees
// exactly the shapes a decoded request body would carry.
func toValidatable(arguments map[string]any) any {
	data, err := json.Marshal(arguments)
	if err != nil {
		return arguments
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return arguments
	}
	return v
}

// toolErrorMessage formats a handler error for the caller. Store internals
// are reported by category, never as raw driver errors on the wire.
func toolErrorMessage(name string, err error) string {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return err.Error()
	case errors.Is(err, types.ErrLockTimeout):
		return "the mirror database is busy (another process holds the write lock); try again"
	case errors.Is(err, types.ErrStoreClosed):
		return "the mirror store is shutting down"
	default:
		return fmt.Sprintf("%s failed: %v", name, err)
	}
}
