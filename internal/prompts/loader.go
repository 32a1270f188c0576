// Package prompts provides a loader for the externalized stage contract documents.
// Each stage's preamble, prompt template and generation profile live in a YAML
// file embedded at compile time.
package prompts

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/showcase-forge/internal/llm"
)

//go:embed contracts/*.yaml
var contractFiles embed.FS

// ContractDoc is the on-disk shape of one stage contract.
type ContractDoc struct {
	Stage          string                `yaml:"stage"`
	Version        string                `yaml:"version"`
	Critical       bool                  `yaml:"critical"`
	TimeoutSeconds int                   `yaml:"timeoutSeconds"`
	ProgressWeight int                   `yaml:"progressWeight"`
	Preamble       string                `yaml:"preamble"`
	Template       string                `yaml:"template"`
	Profile        llm.GenerationProfile `yaml:"profile"`
}

// cache stores parsed contract documents to avoid repeated YAML parsing
var (
	cache   []ContractDoc
	cacheMu sync.RWMutex
)

// Contracts returns every embedded contract document in file order.
func Contracts() ([]ContractDoc, error) {
	cacheMu.RLock()
	if cache != nil {
		docs := append([]ContractDoc(nil), cache...)
		cacheMu.RUnlock()
		return docs, nil
	}
	cacheMu.RUnlock()

	docs, err := loadAll()
	if err != nil {
		return nil, err
	}

	cacheMu.Lock()
	cache = docs
	cacheMu.Unlock()

	return append([]ContractDoc(nil), docs...), nil
}

// Parse decodes and checks a single contract document.
func Parse(data []byte) (ContractDoc, error) {
	var doc ContractDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return ContractDoc{}, fmt.Errorf("failed to parse contract: %w", err)
	}
	doc.Stage = strings.TrimSpace(doc.Stage)
	doc.Version = strings.TrimSpace(doc.Version)
	if doc.Stage == "" {
		return ContractDoc{}, fmt.Errorf("contract is missing stage")
	}
	if doc.Version == "" {
		return ContractDoc{}, fmt.Errorf("contract %s is missing version", doc.Stage)
	}
	if doc.TimeoutSeconds <= 0 {
		return ContractDoc{}, fmt.Errorf("contract %s must declare a positive timeoutSeconds", doc.Stage)
	}
	if doc.ProgressWeight < 0 {
		return ContractDoc{}, fmt.Errorf("contract %s has a negative progressWeight", doc.Stage)
	}
	if strings.TrimSpace(doc.Template) == "" {
		return ContractDoc{}, fmt.Errorf("contract %s is missing template", doc.Stage)
	}
	return doc, nil
}

// Format replaces template placeholders in the form {{.Key}} with values from
// data in a single pass; placeholders that appear inside substituted values
// are left as they are.
func Format(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, key := range keys {
		pairs = append(pairs, "{{."+key+"}}", data[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ClearCache clears the contract cache. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
}

func loadAll() ([]ContractDoc, error) {
	entries, err := contractFiles.ReadDir("contracts")
	if err != nil {
		return nil, fmt.Errorf("failed to list contract files: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".yaml") {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)

	docs := make([]ContractDoc, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		data, err := contractFiles.ReadFile(path.Join("contracts", name))
		if err != nil {
			return nil, fmt.Errorf("failed to read contract file %s: %w", name, err)
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if seen[doc.Stage] {
			return nil, fmt.Errorf("duplicate contract for stage %s in %s", doc.Stage, name)
		}
		seen[doc.Stage] = true
		docs = append(docs, doc)
	}
	return docs, nil
}
