package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/jonathan/showcase-forge/internal/types"
)

// metadataKey holds per-run identifiers that must not influence cache keys
const metadataKey = "metadata"

// outputFields are the input fields that carry an upstream stage output.
// Only their metadata block is dropped; caller-supplied keys named
// "metadata" elsewhere, such as in the context bag, are kept.
var outputFields = func() map[string]bool {
	fields := make(map[string]bool)
	for _, stage := range types.StructuredStages() {
		fields[string(stage)] = true
	}
	return fields
}()

// Key derives the cache key for a stage execution. Inputs that are equal after
// normalization produce the same key; a new contract version produces a new key.
func Key(stage types.StageID, input any, version string) (string, error) {
	canonical, err := Normalize(input)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write([]byte(stage))
	h.Write([]byte{0})
	h.Write([]byte(version))
	h.Write([]byte{0})
	h.Write(canonical)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Normalize renders an input in canonical JSON form: object keys sorted,
// nil values dropped at every depth, the metadata block of embedded stage
// outputs removed.
func Normalize(input any) ([]byte, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache input: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("failed to decode cache input: %w", err)
	}

	if root, ok := generic.(map[string]any); ok {
		for field, value := range root {
			if output, ok := value.(map[string]any); ok && outputFields[field] {
				delete(output, metadataKey)
			}
		}
	}

	canonical, err := json.Marshal(prune(generic))
	if err != nil {
		return nil, fmt.Errorf("failed to encode canonical input: %w", err)
	}
	return canonical, nil
}

func prune(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			if item == nil {
				continue
			}
			out[k] = prune(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = prune(item)
		}
		return out
	default:
		return v
	}
}
