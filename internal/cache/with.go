package cache

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jonathan/showcase-forge/internal/types"
)

// Executor produces a stage result on a cache miss.
type Executor func(ctx context.Context) types.StageResult

// Options controls a single WithCache call.
type Options struct {
	// Bypass skips both lookup and store.
	Bypass bool
}

// Metadata keys stored alongside each payload
const (
	metaStage    = "stage"
	metaVersion  = "version"
	metaModel    = "model"
	metaRepaired = "repaired"
)

// WithCache returns the cached result for (stage, input, version) or runs exec
// and stores its value when it succeeded. Hits are decoded copies tagged
// ServedFromCache with zero cost and zero attempts. exec always runs outside
// the cache lock. A nil cache runs exec directly.
func (c *Cache) WithCache(ctx context.Context, stage types.StageID, input any, version string, exec Executor, opts Options) types.StageResult {
	if c == nil || opts.Bypass {
		return exec(ctx)
	}

	key, err := Key(stage, input, version)
	if err != nil {
		return exec(ctx)
	}

	if entry, ok := c.Get(key); ok {
		if result, decoded := decodeEntry(stage, entry); decoded {
			c.observe(stage, true)
			return result
		}
	}
	c.observe(stage, false)

	result := exec(ctx)
	if !result.OK() {
		return result
	}

	payload, err := json.Marshal(result.Value)
	if err != nil {
		return result
	}
	c.Set(key, payload, map[string]string{
		metaStage:    string(stage),
		metaVersion:  version,
		metaModel:    result.Model,
		metaRepaired: strconv.FormatBool(result.Repaired),
	})
	return result
}

func (c *Cache) observe(stage types.StageID, hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(stage, hit)
	}
}

func decodeEntry(stage types.StageID, entry *Entry) (types.StageResult, bool) {
	value := types.NewOutput(stage)
	if value == nil {
		return types.StageResult{}, false
	}
	if err := json.Unmarshal(entry.Payload, value); err != nil {
		return types.StageResult{}, false
	}
	repaired, _ := strconv.ParseBool(entry.Metadata[metaRepaired])
	return types.StageResult{
		Stage:           stage,
		Value:           value,
		Repaired:        repaired,
		ServedFromCache: true,
		Model:           entry.Metadata[metaModel],
	}, true
}
