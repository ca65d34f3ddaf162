package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// KeyRequest is the canonical input to cache key derivation. Zero-valued
// fields are dropped before serialization so that semantically identical
// requests derive identical keys.
type KeyRequest struct {
	Provider     string
	Model        string
	Models       []string
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int

	// Extra carries arbitrary request options. Nested maps are
	// canonicalized recursively.
	Extra map[string]any
}

// DeriveKey canonicalizes a request into a deterministic cache key.
//
// Canonicalization drops empty-string and nil values, sorts the model list
// independently of input order, and sorts object keys at every nesting
// level. Two requests identical up to key order and model-list order derive
// the same key; any change to prompt, system prompt, or a numeric parameter
// derives a different one.
func DeriveKey(req KeyRequest) string {
	canonical := map[string]any{}

	put := func(k, v string) {
		if v != "" {
			canonical[k] = v
		}
	}
	put("provider", req.Provider)
	put("model", req.Model)
	put("prompt", req.Prompt)
	put("system_prompt", req.SystemPrompt)

	if len(req.Models) > 0 {
		models := make([]string, len(req.Models))
		copy(models, req.Models)
		sort.Strings(models)
		canonical["models"] = models
	}

	if req.Temperature != 0 {
		canonical["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		canonical["max_tokens"] = req.MaxTokens
	}

	for k, v := range normalizeMap(req.Extra) {
		canonical[k] = v
	}

	// encoding/json emits map keys in sorted order at every level, which
	// makes the serialization deterministic once empty values are gone.
	data, err := json.Marshal(canonical)
	if err != nil {
		// Only unmarshalable values (channels, funcs) can land here;
		// fall back to the empty request key rather than failing.
		data = []byte("{}")
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// normalizeMap strips empty values from a map recursively.
func normalizeMap(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if normalized, ok := normalizeValue(v); ok {
			out[k] = normalized
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// normalizeValue returns the canonical form of v and whether it should be
// kept. Empty strings, nils, and empty containers are dropped.
func normalizeValue(v any) (any, bool) {
	switch val := v.(type) {
	case nil:
		return nil, false
	case string:
		return val, val != ""
	case map[string]any:
		normalized := normalizeMap(val)
		return normalized, normalized != nil
	case []any:
		out := make([]any, 0, len(val))
		for _, item := range val {
			if normalized, ok := normalizeValue(item); ok {
				out = append(out, normalized)
			}
		}
		return out, len(out) > 0
	default:
		return val, true
	}
}
