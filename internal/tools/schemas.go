// Input schemas for the tool catalogue. The same schema text is advertised
// through tools/list and compiled for boundary validation, so what callers
// discover is exactly what is enforced.
package tools

const listPostsSchema = `{
  "type": "object",
  "properties": {
    "type": {"type": "string", "description": "Filter by post type (e.g. post, page)."},
    "status": {
      "type": "string",
      "enum": ["publish", "draft", "pending", "private", "trash", "future"],
      "description": "Filter by status."
    },
    "dirty": {"type": "boolean", "description": "Filter by pending local changes."},
    "search": {"type": "string", "description": "Substring match on title and content."},
    "limit": {"type": "integer", "description": "Page size, clamped to 1-200."},
    "offset": {"type": "integer", "description": "Rows to skip, clamped to >= 0."}
  },
  "additionalProperties": false
}`

const getPostSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "description": "Post id."}
  },
  "required": ["id"],
  "additionalProperties": false
}`

const updatePostSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "description": "Post id."},
    "title": {"type": "string"},
    "slug": {"type": "string"},
    "status": {"type": "string"},
    "content": {"type": "string"},
    "excerpt": {"type": "string"},
    "meta": {"type": "object", "description": "Meta entries to upsert, keyed by meta key."}
  },
  "required": ["id"],
  "additionalProperties": false
}`

const updateSeoSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "description": "Post id."},
    "title": {"type": "string"},
    "description": {"type": "string"},
    "canonical": {"type": "string"},
    "open_graph": {
      "type": "object",
      "properties": {
        "title": {"type": "string"},
        "description": {"type": "string"},
        "image": {"type": "string"}
      },
      "additionalProperties": false
    },
    "robots": {
      "type": "object",
      "properties": {
        "noindex": {"type": "boolean"},
        "nofollow": {"type": "boolean"}
      },
      "additionalProperties": false
    }
  },
  "required": ["id"],
  "additionalProperties": false
}`

const listTermsSchema = `{
  "type": "object",
  "properties": {
    "taxonomy": {"type": "string", "description": "Restrict to one taxonomy; omit for all, grouped by taxonomy."}
  },
  "additionalProperties": false
}`

const setPostTermsSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "description": "Post id."},
    "taxonomy": {"type": "string", "description": "Taxonomy whose assignments are replaced."},
    "term_ids": {
      "type": "array",
      "items": {"type": "integer"},
      "description": "Full replacement id list for the taxonomy."
    }
  },
  "required": ["id", "taxonomy", "term_ids"],
  "additionalProperties": false
}`

const getStatsSchema = `{
  "type": "object",
  "properties": {
    "type": {"type": "string", "description": "Narrow totals to one post type; the by-type breakdown stays unfiltered."}
  },
  "additionalProperties": false
}`

const getHistorySchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "integer", "description": "Post id."},
    "limit": {"type": "integer", "description": "Entries to return, clamped to 1-100."}
  },
  "required": ["id"],
  "additionalProperties": false
}`
