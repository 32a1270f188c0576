// Package stages provides the immutable stage contract registry: for every
// stage, its prompt construction, generation profile, timeout and progress weight.
package stages

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/showcase-forge/internal/llm"
	"github.com/jonathan/showcase-forge/internal/prompts"
	"github.com/jonathan/showcase-forge/internal/types"
)

// Contract is the read-only definition of one stage.
type Contract struct {
	Stage          types.StageID
	Version        string
	SystemPreamble string
	Template       string
	Profile        llm.GenerationProfile
	Timeout        time.Duration
	ProgressWeight int
	Critical       bool

	build PromptBuilder
}

// PromptBuilder renders the stage template for a typed input.
type PromptBuilder func(template string, input any) (string, error)

// BuildPrompt returns the full prompt text: preamble followed by the rendered template.
func (c Contract) BuildPrompt(input any) (string, error) {
	if c.build == nil {
		return "", &llm.ConfigurationError{Message: fmt.Sprintf("stage %s has no prompt builder", c.Stage)}
	}
	body, err := c.build(c.Template, input)
	if err != nil {
		return "", fmt.Errorf("building %s prompt: %w", c.Stage, err)
	}
	if c.SystemPreamble == "" {
		return body, nil
	}
	return c.SystemPreamble + "\n\n" + body, nil
}

// Registry maps stage identifiers to contracts. It has no mutation API.
type Registry struct {
	contracts map[types.StageID]Contract
	order     []types.StageID
}

// NewRegistry builds a registry from contract documents. Every document must
// name a known stage with a registered prompt builder.
func NewRegistry(docs []prompts.ContractDoc) (*Registry, error) {
	r := &Registry{contracts: make(map[types.StageID]Contract, len(docs))}
	for _, doc := range docs {
		id := types.StageID(doc.Stage)
		if !id.Valid() {
			return nil, &llm.ConfigurationError{Message: fmt.Sprintf("contract for %q", doc.Stage), Cause: llm.ErrUnknownStage}
		}
		builder, ok := builders[id]
		if !ok {
			return nil, &llm.ConfigurationError{Message: fmt.Sprintf("no prompt builder for stage %s", id)}
		}
		if _, dup := r.contracts[id]; dup {
			return nil, &llm.ConfigurationError{Message: fmt.Sprintf("duplicate contract for stage %s", id)}
		}
		r.contracts[id] = Contract{
			Stage:          id,
			Version:        doc.Version,
			SystemPreamble: doc.Preamble,
			Template:       doc.Template,
			Profile:        doc.Profile,
			Timeout:        time.Duration(doc.TimeoutSeconds) * time.Second,
			ProgressWeight: doc.ProgressWeight,
			Critical:       doc.Critical,
			build:          builder,
		}
		r.order = append(r.order, id)
	}
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Default returns the process-wide registry built from the embedded contracts.
func Default() (*Registry, error) {
	defaultOnce.Do(func() {
		docs, err := prompts.Contracts()
		if err != nil {
			defaultErr = &llm.ConfigurationError{Message: "loading stage contracts", Cause: err}
			return
		}
		defaultRegistry, defaultErr = NewRegistry(docs)
	})
	return defaultRegistry, defaultErr
}

// MustDefault returns the default registry, panicking if the embedded contracts are invalid.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(fmt.Sprintf("failed to load stage registry: %v", err))
	}
	return r
}

// Get returns the contract for a stage, or a ConfigurationError wrapping llm.ErrUnknownStage.
func (r *Registry) Get(id types.StageID) (Contract, error) {
	c, ok := r.contracts[id]
	if !ok {
		return Contract{}, &llm.ConfigurationError{Message: fmt.Sprintf("stage %q", id), Cause: llm.ErrUnknownStage}
	}
	return c, nil
}

// Stages returns all contracts in declaration order.
func (r *Registry) Stages() []Contract {
	out := make([]Contract, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.contracts[id])
	}
	return out
}

// Prompt builds the full prompt for a stage input.
func (r *Registry) Prompt(id types.StageID, input any) (string, error) {
	c, err := r.Get(id)
	if err != nil {
		return "", err
	}
	return c.BuildPrompt(input)
}
