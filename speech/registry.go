package speech

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is a thread-safe registry for TTS and STT providers.
// It supports registering, retrieving, and listing providers per model
// type, as well as designating a default provider for each.
type Registry struct {
	tts        map[string]TTSProvider
	stt        map[string]STTProvider
	defaultTTS string
	defaultSTT string
	mu         sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		tts: make(map[string]TTSProvider),
		stt: make(map[string]STTProvider),
	}
}

// RegisterTTS adds a TTS provider under the given name.
// If a provider with the same name already exists, it is replaced.
func (r *Registry) RegisterTTS(name string, p TTSProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tts[name] = p
}

// RegisterSTT adds an STT provider under the given name.
func (r *Registry) RegisterSTT(name string, p STTProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stt[name] = p
}

// TTS retrieves a TTS provider by name.
func (r *Registry) TTS(name string) (TTSProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.tts[name]
	return p, ok
}

// STT retrieves an STT provider by name.
func (r *Registry) STT(name string) (STTProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.stt[name]
	return p, ok
}

// SetDefaultTTS marks the named TTS provider as the default.
// Returns an error if the name has not been registered.
func (r *Registry) SetDefaultTTS(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tts[name]; !ok {
		return fmt.Errorf("tts provider %q not registered", name)
	}
	r.defaultTTS = name
	return nil
}

// SetDefaultSTT marks the named STT provider as the default.
func (r *Registry) SetDefaultSTT(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stt[name]; !ok {
		return fmt.Errorf("stt provider %q not registered", name)
	}
	r.defaultSTT = name
	return nil
}

// DefaultTTS returns the default TTS provider.
// Returns an error if no default has been set.
func (r *Registry) DefaultTTS() (TTSProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultTTS == "" {
		return nil, NewError(ErrProviderUnavailable, "no default tts provider set")
	}
	return r.tts[r.defaultTTS], nil
}

// DefaultSTT returns the default STT provider.
func (r *Registry) DefaultSTT() (STTProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.defaultSTT == "" {
		return nil, NewError(ErrProviderUnavailable, "no default stt provider set")
	}
	return r.stt[r.defaultSTT], nil
}

// List returns registered provider names grouped by model type,
// sorted for stable output.
func (r *Registry) List() map[ModelType][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[ModelType][]string, 2)
	ttsNames := make([]string, 0, len(r.tts))
	for name := range r.tts {
		ttsNames = append(ttsNames, name)
	}
	sort.Strings(ttsNames)
	out[ModelTypeTTS] = ttsNames

	sttNames := make([]string, 0, len(r.stt))
	for name := range r.stt {
		sttNames = append(sttNames, name)
	}
	sort.Strings(sttNames)
	out[ModelTypeSpeech2Text] = sttNames
	return out
}
