package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/showcase-forge/internal/config"
	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/llm/llmtest"
	"github.com/jonathan/showcase-forge/internal/pipeline"
	"github.com/jonathan/showcase-forge/internal/types"
)

func TestBuildIdeaInput(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.Config
		contextJSON string
		want        map[string]any
		wantErr     string
	}{
		{
			name: "hints only",
			cfg:  config.Config{Idea: " a journaling app ", Platform: "mobile"},
			want: map[string]any{"platform": "mobile"},
		},
		{
			name:        "flags override context json",
			cfg:         config.Config{Idea: "a journaling app", Tone: "calm"},
			contextJSON: `{"tone": "loud", "region": "EU"}`,
			want:        map[string]any{"tone": "calm", "region": "EU"},
		},
		{
			name: "no context",
			cfg:  config.Config{Idea: "a journaling app"},
		},
		{
			name:    "missing idea",
			cfg:     config.Config{Idea: "   "},
			wantErr: "--idea is required",
		},
		{
			name:        "context not an object",
			cfg:         config.Config{Idea: "a journaling app"},
			contextJSON: `["a"]`,
			wantErr:     "--context-json",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := buildIdeaInput(tt.cfg, tt.contextJSON)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.cfg.Idea), input.Idea)
			assert.Equal(t, tt.want, input.Context)
		})
	}
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	path := writeFile(t, "config.json", `{"idea": "from file", "tone": "calm", "asset_dir": "assets", "max_retries": 3}`)

	cfg, err := loadConfig(path, func(c *config.Config) {
		c.Idea = "from flag"
		c.S3Bucket = "showcase-assets"
		c.AssetDir = ""
	})
	require.NoError(t, err)

	assert.Equal(t, "from flag", cfg.Idea)
	assert.Equal(t, "calm", cfg.Tone)
	assert.Equal(t, "showcase-assets", cfg.S3Bucket)
	assert.Empty(t, cfg.AssetDir)
	assert.Equal(t, 3, cfg.Retries())
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, config.Defaults().CacheMaxEntries, cfg.CacheMaxEntries)
}

func TestLoadConfig_ZeroRetriesKept(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_retries": 0}`)
	cfg, err := loadConfig(path, nil)
	require.NoError(t, err)

	require.NotNil(t, cfg.MaxRetries)
	assert.Zero(t, cfg.Retries())
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	path := writeFile(t, "config.json", `{"max_retries": 9}`)
	_, err := loadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxRetries")
}

func TestRunCommand(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DATABASE_URL", "")
	stub := llmtest.HappyPath(10, 10)
	stubBackend(t, stub)

	dir := t.TempDir()
	outPath := filepath.Join(dir, "result.json")
	assets := filepath.Join(dir, "assets")

	out, err := executeCommand(t, "run",
		"--idea", "a journaling app for night owls",
		"--platform", "mobile",
		"--no-cache",
		"--asset-dir", assets,
		"--out", outPath,
	)
	require.NoError(t, err, out)

	assert.Contains(t, out, "Showcasing: a journaling app for night owls")
	assert.Contains(t, out, "[100%]")
	assert.Contains(t, out, "Status: completed")
	assert.Equal(t, 5, stub.TotalCalls())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var report runReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, pipeline.StatusCompleted, report.Status)
	require.NotNil(t, report.Result.Showcase)
	assert.True(t, strings.HasPrefix(report.Result.Showcase.URL, "file://"))

	entries, err := os.ReadDir(filepath.Join(assets, report.RequestID))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRunCommand_Verbose(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DATABASE_URL", "")
	stubBackend(t, llmtest.HappyPath(1, 1))

	out, err := executeCommand(t, "run", "--idea", "a journaling app", "--no-cache", "--verbose")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Night Pages")
	assert.Contains(t, out, "ALL STAGES SUCCEEDED")
}

func TestRunCommand_ConceptFailure(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("DATABASE_URL", "")
	stub := llmtest.NewStubBackend().On(types.StageConcept, llmtest.Reply{Err: &llm.ContentBlockedError{Reason: "SAFETY"}})
	stubBackend(t, stub)

	out, err := executeCommand(t, "run", "--idea", "something", "--no-cache")
	require.Error(t, err)
	assert.Contains(t, out, "Status: failed")
	assert.NotContains(t, out, "%]")
}

func TestRunCommand_RequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("DATABASE_URL", "")

	_, err := executeCommand(t, "run", "--idea", "a journaling app")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")
}

func TestRunCommand_ExclusiveAssetFlags(t *testing.T) {
	_, err := executeCommand(t, "run", "--idea", "x", "--asset-dir", "a", "--s3-bucket", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}
