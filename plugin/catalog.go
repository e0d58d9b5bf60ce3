package plugin

import (
	"context"
	"sort"

	"github.com/BaSui01/speechflow/manifest"
	"github.com/BaSui01/speechflow/speech"
)

// Catalog is the in-memory registry of the models a loaded bundle
// surfaces, keyed by model type. It is built once from the bundle's
// predefined definition files and never mutated afterwards.
type Catalog struct {
	models map[speech.ModelType][]*manifest.ModelDefinition
	byID   map[speech.ModelType]map[string]*manifest.ModelDefinition
}

// NewCatalog builds a catalog from a loaded bundle.
func NewCatalog(bundle *manifest.Bundle) *Catalog {
	c := &Catalog{
		models: make(map[speech.ModelType][]*manifest.ModelDefinition),
		byID:   make(map[speech.ModelType]map[string]*manifest.ModelDefinition),
	}
	for modelType, defs := range bundle.Models {
		sorted := make([]*manifest.ModelDefinition, len(defs))
		copy(sorted, defs)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Model < sorted[j].Model })
		c.models[modelType] = sorted

		index := make(map[string]*manifest.ModelDefinition, len(sorted))
		for _, def := range sorted {
			index[def.Model] = def
		}
		c.byID[modelType] = index
	}
	return c
}

// Models returns the definitions for a model type in stable id order.
func (c *Catalog) Models(t speech.ModelType) []*manifest.ModelDefinition {
	return c.models[t]
}

// Model looks up a single definition.
func (c *Catalog) Model(t speech.ModelType, id string) (*manifest.ModelDefinition, bool) {
	def, ok := c.byID[t][id]
	return def, ok
}

// ModelTypes returns the types the catalog has definitions for, sorted.
func (c *Catalog) ModelTypes() []speech.ModelType {
	out := make([]speech.ModelType, 0, len(c.models))
	for t := range c.models {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Voices returns the live voice list for the TTS provider, going
// through the cache when one is configured.
func (p *SpeechPlugin) Voices(ctx context.Context) ([]speech.Voice, error) {
	p.mu.RLock()
	state, tts, cache := p.state, p.tts, p.voiceCache
	p.mu.RUnlock()

	if state != StateInitialized || tts == nil {
		return nil, speech.NewError(speech.ErrProviderUnavailable, "tts provider not initialized")
	}
	if cache == nil {
		return tts.ListVoices(ctx)
	}
	if voices, err := cache.Get(ctx, tts.Name()); err == nil {
		return voices, nil
	}
	voices, err := tts.ListVoices(ctx)
	if err != nil {
		return nil, err
	}
	cache.Put(ctx, tts.Name(), voices)
	return voices, nil
}
