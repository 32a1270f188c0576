package schemas

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jonathan/showcase-forge/internal/types"
)

// ValidateJSONFile validates a JSON document on disk against a stage schema.
// With repair set, one repair pass is applied and the outcome reflects it.
func (v *Validator) ValidateJSONFile(stage types.StageID, path string, repair bool) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("JSON file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read JSON file %s: %w", path, err)
	}

	parsed := ParseResponse(string(data))
	if !parsed.Success {
		return nil, fmt.Errorf("failed to parse %s: %w", path, parsed.Error)
	}

	if !repair {
		return v.Validate(stage, parsed.Data)
	}
	return v.ValidateWithRepair(stage, parsed.Data, RepairContext{Version: "local", Now: time.Now()})
}

// ValidJSON marshals an outcome's value for display.
func (o *Outcome) ValidJSON() ([]byte, error) {
	if o.Value == nil {
		return nil, fmt.Errorf("outcome has no value")
	}
	return json.MarshalIndent(o.Value, "", "  ")
}
