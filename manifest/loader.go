package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/speechflow/speech"
)

// Loader loads provider descriptors and bundles from files or raw bytes.
type Loader interface {
	// LoadProvider reads a manifest file and parses it into a Provider.
	// Format is auto-detected from the file extension (.yaml, .yml, .json).
	LoadProvider(path string) (*Provider, error)

	// LoadBundle loads the manifest at path together with every model
	// definition file its models globs resolve to.
	LoadBundle(path string) (*Bundle, error)
}

// Bundle is a fully loaded provider bundle: the descriptor plus the
// predefined model definitions its globs point at. It is immutable
// after loading.
type Bundle struct {
	// Dir is the directory the manifest was loaded from; globs are
	// resolved relative to it.
	Dir string

	Provider *Provider

	// Models holds the parsed definition files grouped by the manifest
	// section they were referenced from, in stable path order.
	Models map[speech.ModelType][]*ModelDefinition
}

// ModelsOf returns the definitions listed under the given model type.
func (b *Bundle) ModelsOf(t speech.ModelType) []*ModelDefinition {
	return b.Models[t]
}

// Model looks up a definition by model type and model id.
func (b *Bundle) Model(t speech.ModelType, id string) (*ModelDefinition, bool) {
	for _, def := range b.Models[t] {
		if def.Model == id {
			return def, true
		}
	}
	return nil, false
}

// YAMLLoader implements Loader for YAML and JSON manifests.
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAMLLoader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

// LoadProvider reads a manifest file and parses it based on extension.
func (l *YAMLLoader) LoadProvider(path string) (*Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider manifest: %w", err)
	}

	format := detectFormat(path)
	if format == "" {
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}

	return l.LoadProviderBytes(data, format)
}

// LoadProviderBytes parses raw bytes in the given format ("yaml" or "json").
func (l *YAMLLoader) LoadProviderBytes(data []byte, format string) (*Provider, error) {
	var p Provider

	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q, use \"yaml\" or \"json\"", format)
	}

	return &p, nil
}

// LoadBundle loads the manifest at path and every model definition file
// referenced by its models globs. Globs that resolve to nothing are not
// an error here; Bundle.Validate reports them as violations.
func (l *YAMLLoader) LoadBundle(path string) (*Bundle, error) {
	provider, err := l.LoadProvider(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	bundle := &Bundle{
		Dir:      dir,
		Provider: provider,
		Models:   make(map[speech.ModelType][]*ModelDefinition, len(provider.Models)),
	}

	for modelType, files := range provider.Models {
		paths, err := resolveGlobs(dir, files.Predefined)
		if err != nil {
			return nil, fmt.Errorf("resolve model globs for %s: %w", modelType, err)
		}
		defs := make([]*ModelDefinition, 0, len(paths))
		for _, p := range paths {
			def, err := l.loadModelDefinition(p)
			if err != nil {
				return nil, fmt.Errorf("load model definition %s: %w", p, err)
			}
			defs = append(defs, def)
		}
		bundle.Models[modelType] = defs
	}

	return bundle, nil
}

func (l *YAMLLoader) loadModelDefinition(path string) (*ModelDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var def ModelDefinition
	switch detectFormat(path) {
	case "yaml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}
	def.SourceFile = path
	return &def, nil
}

// resolveGlobs expands patterns relative to dir, deduplicates, and
// returns matches in stable sorted order.
func resolveGlobs(dir string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// detectFormat returns "yaml" or "json" based on file extension, or "" if unknown.
func detectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return ""
	}
}
