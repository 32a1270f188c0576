package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStageID(t *testing.T) {
	tests := []struct {
		input   string
		want    StageID
		wantErr bool
	}{
		{input: "concept", want: StageConcept},
		{input: "image_prompts", want: StageImagePrompts},
		{input: "showcase", want: StageShowcase},
		{input: "Concept", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStageID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStageID_IsStructured(t *testing.T) {
	for _, stage := range StructuredStages() {
		assert.True(t, stage.IsStructured(), stage)
		assert.NotNil(t, NewOutput(stage), stage)
	}
	assert.False(t, StageShowcase.IsStructured())
}

func TestIdeaInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		input   IdeaInput
		wantErr bool
	}{
		{name: "valid", input: IdeaInput{Idea: "a journaling app"}},
		{name: "empty", input: IdeaInput{}, wantErr: true},
		{name: "whitespace", input: IdeaInput{Idea: " \t\n"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.input.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIdeaInput_ContextString(t *testing.T) {
	in := IdeaInput{Idea: "x", Context: map[string]any{"tone": "  calm ", "weight": 3}}
	assert.Equal(t, "calm", in.ContextString("tone"))
	assert.Empty(t, in.ContextString("weight"))
	assert.Empty(t, in.ContextString("missing"))
	assert.Empty(t, (&IdeaInput{}).ContextString("tone"))
}
