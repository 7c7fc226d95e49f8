package types

import "encoding/json"

// MetaValue is the decoded form of one post_meta row. Stored values are
// canonical encoded strings: plain strings are stored verbatim, everything
// else is JSON. Decoding tags the outcome instead of silently falling back,
// so callers can tell "this was never structured" from "this failed to
// decode".
type MetaValue struct {
	// Value is the decoded value when Decoded is true, otherwise the raw
	// stored string.
	Value any `json:"value"`

	// Decoded reports whether the stored string parsed as JSON.
	Decoded bool `json:"decoded"`
}

// EncodeMeta converts a value to its canonical stored string. Strings pass
// through verbatim; all other JSON-representable values are marshaled.
// A string that itself reads as JSON, such as "42", is indistinguishable
// from the encoded number once stored and will decode as the number.
func EncodeMeta(value any) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeMeta converts a stored string back to a MetaValue. A string that
// parses as JSON yields the parsed value with Decoded set; anything else is
// returned as the raw string. The Decoded tag is how callers handle the
// encoding's ambiguity: a stored "42" always comes back as the number.
func DecodeMeta(raw string) MetaValue {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return MetaValue{Value: raw, Decoded: false}
	}
	return MetaValue{Value: parsed, Decoded: true}
}
