package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/showcase-forge/internal/llm/llmtest"
	"github.com/jonathan/showcase-forge/internal/schemas"
	"github.com/jonathan/showcase-forge/internal/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func withMetadata(t *testing.T, stage types.StageID) string {
	t.Helper()
	parsed := schemas.ParseResponse(llmtest.FixtureJSON(stage))
	require.True(t, parsed.Success)
	schemas.InjectMetadata(parsed.Data, types.Metadata{Version: "1", RequestID: "req-1", Stage: stage, GeneratedAt: time.Now()})
	data, err := json.Marshal(parsed.Data)
	require.NoError(t, err)
	return string(data)
}

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		stage   types.StageID
		content string
		repair  bool
		wantErr bool
		want    string
	}{
		{
			name:    "valid concept",
			stage:   types.StageConcept,
			content: withMetadata(t, types.StageConcept),
			want:    "Validation passed for concept",
		},
		{
			name:    "missing metadata",
			stage:   types.StageResearch,
			content: llmtest.FixtureJSON(types.StageResearch),
			wantErr: true,
			want:    "Validation failed for research",
		},
		{
			name:    "missing metadata repaired",
			stage:   types.StageResearch,
			content: llmtest.FixtureJSON(types.StageResearch),
			repair:  true,
			want:    "after repair",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"validate", "--stage", string(tt.stage), "--file", writeFile(t, "doc.json", tt.content)}
			if tt.repair {
				args = append(args, "--repair")
			}
			out, err := executeCommand(t, args...)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestValidateCommand_BadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "unknown stage", args: []string{"--stage", "nope", "--file", "x.json"}, want: "nope"},
		{name: "missing file", args: []string{"--stage", "concept", "--file", filepath.Join(t.TempDir(), "missing.json")}, want: "not found"},
		{name: "missing flags", args: nil, want: "required flag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, append([]string{"validate"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestContractsCommand(t *testing.T) {
	out, err := executeCommand(t, "contracts")
	require.NoError(t, err)

	assert.Contains(t, out, "STAGE")
	for _, stage := range types.AllStages() {
		assert.Contains(t, out, string(stage))
	}
}

func TestContractsCommand_Preview(t *testing.T) {
	out, err := executeCommand(t, "contracts", "--preview", "a habit tracker for night owls")
	require.NoError(t, err)

	assert.Contains(t, out, "a habit tracker for night owls")
	assert.NotContains(t, out, "CRITICAL")
}
