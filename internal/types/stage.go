// Package types provides type definitions for structured data used throughout the showcase pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "fmt"

// StageID names one pipeline step. Execution order is owned by the pipeline,
// not by the identifier.
type StageID string

// Stage identifiers
const (
	StageConcept      StageID = "concept"
	StageResearch     StageID = "research"
	StageScreens      StageID = "screens"
	StageImagePrompts StageID = "image_prompts"
	StageMockup       StageID = "mockup"
	StageShowcase     StageID = "showcase"
)

// AllStages returns every known stage identifier.
func AllStages() []StageID {
	return []StageID{StageConcept, StageResearch, StageScreens, StageImagePrompts, StageMockup, StageShowcase}
}

// StructuredStages returns the stages whose output is JSON validated against a schema.
func StructuredStages() []StageID {
	return []StageID{StageConcept, StageResearch, StageScreens, StageImagePrompts, StageMockup}
}

// IsStructured reports whether the stage produces schema-validated JSON.
func (s StageID) IsStructured() bool {
	for _, id := range StructuredStages() {
		if id == s {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known stage identifier.
func (s StageID) Valid() bool {
	for _, id := range AllStages() {
		if id == s {
			return true
		}
	}
	return false
}

// String implements fmt.Stringer
func (s StageID) String() string {
	return string(s)
}

// ParseStageID converts user input into a StageID.
func ParseStageID(value string) (StageID, error) {
	id := StageID(value)
	if !id.Valid() {
		return "", fmt.Errorf("unknown stage %q", value)
	}
	return id, nil
}
