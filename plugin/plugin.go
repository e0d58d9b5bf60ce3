package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/speechflow/manifest"
	"github.com/BaSui01/speechflow/providers/elevenlabs"
	"github.com/BaSui01/speechflow/speech"
)

// Version is the bundle runtime version surfaced to hosts.
const Version = "0.3.0"

// State represents the lifecycle state of the plugin.
type State string

const (
	StateCreated     State = "created"
	StateInitialized State = "initialized"
	StateFailed      State = "failed"
	StateShutdown    State = "shutdown"
)

// Metadata holds the descriptive information a host shows for the
// provider, derived from the loaded manifest.
type Metadata struct {
	Name        string             `json:"name"`
	Version     string             `json:"version"`
	Label       string             `json:"label"`
	Description string             `json:"description,omitempty"`
	ModelTypes  []speech.ModelType `json:"model_types"`
}

// Options configures a SpeechPlugin.
type Options struct {
	// BundlePath points at the provider manifest file. Ignored when
	// Bundle is set.
	BundlePath string

	// Bundle is a preloaded bundle, mainly for tests.
	Bundle *manifest.Bundle

	// Credentials are the host-collected credential form values.
	Credentials Credentials

	// ProbeOnInit makes Init verify the credentials against the vendor
	// before reporting success.
	ProbeOnInit bool

	// BaseURL overrides the vendor endpoint (tests, proxies).
	BaseURL string

	// HTTPTimeout bounds each vendor call. Zero uses the provider default.
	HTTPTimeout time.Duration

	// RequestsPerSecond enables client-side pacing when > 0.
	RequestsPerSecond float64

	// Redis enables the voice list cache when non-nil.
	Redis         *redis.Client
	VoiceCacheTTL time.Duration

	Logger *zap.Logger
}

// SpeechPlugin 将一个 ElevenLabs provider bundle 以插件形式暴露给宿主：
// Init 阶段加载并校验 manifest、构建模型目录与 Provider，
// 之后按模型类型提供 Synthesize / Transcribe 调用入口。
type SpeechPlugin struct {
	opts    Options
	logger  *zap.Logger
	bundle  *manifest.Bundle
	catalog *Catalog

	registry   *speech.Registry
	tts        *elevenlabs.TTS
	stt        *elevenlabs.STT
	probe      *elevenlabs.Client
	voiceCache *VoiceCache

	mu    sync.RWMutex
	state State
}

// New creates a SpeechPlugin from options. Nothing is loaded until Init.
func New(opts Options) *SpeechPlugin {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpeechPlugin{
		opts:     opts,
		logger:   logger.With(zap.String("component", "speech_plugin")),
		registry: speech.NewRegistry(),
		state:    StateCreated,
	}
}

// Name returns the provider identifier once loaded, or "" before Init.
func (p *SpeechPlugin) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.bundle == nil {
		return ""
	}
	return p.bundle.Provider.Provider
}

// Version returns the bundle runtime version.
func (p *SpeechPlugin) Version() string { return Version }

// State returns the current lifecycle state.
func (p *SpeechPlugin) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// Init loads the bundle, validates the manifest schema and the supplied
// credentials, and builds one provider per supported model type.
// With ProbeOnInit set it additionally verifies the credentials against
// the vendor.
func (p *SpeechPlugin) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateInitialized {
		return nil
	}

	if err := p.load(); err != nil {
		p.state = StateFailed
		return err
	}
	if err := p.buildProviders(); err != nil {
		p.state = StateFailed
		return err
	}

	if p.opts.ProbeOnInit {
		if err := p.validateProviderCredentials(ctx); err != nil {
			p.state = StateFailed
			return err
		}
	}

	p.state = StateInitialized
	p.logger.Info("speech plugin initialized",
		zap.String("provider", p.bundle.Provider.Provider),
		zap.Int("tts_models", len(p.catalog.Models(speech.ModelTypeTTS))),
		zap.Int("stt_models", len(p.catalog.Models(speech.ModelTypeSpeech2Text))))
	return nil
}

func (p *SpeechPlugin) load() error {
	bundle := p.opts.Bundle
	if bundle == nil {
		if p.opts.BundlePath == "" {
			return speech.NewError(speech.ErrInvalidManifest, "no bundle path configured")
		}
		loaded, err := manifest.NewYAMLLoader().LoadBundle(p.opts.BundlePath)
		if err != nil {
			return fmt.Errorf("load bundle: %w", err)
		}
		bundle = loaded
	}

	if err := bundle.Validate().Err(); err != nil {
		return err
	}
	// 用支配调用的 schema 校验凭据：声明了 model_credential_schema 时
	// 以它为准,否则才是 provider 级 schema。
	for _, modelType := range bundle.Provider.SupportedModelTypes {
		if err := p.opts.Credentials.Validate(bundle.Provider.CredentialSchemaFor(modelType)); err != nil {
			return err
		}
	}

	p.bundle = bundle
	p.catalog = NewCatalog(bundle)
	return nil
}

func (p *SpeechPlugin) buildProviders() error {
	cfg := p.vendorConfig(p.opts.Credentials)
	provider := p.bundle.Provider

	if provider.Supports(speech.ModelTypeTTS) {
		p.tts = elevenlabs.NewTTS(cfg, p.logger)
		p.registry.RegisterTTS(p.tts.Name(), p.tts)
		if err := p.registry.SetDefaultTTS(p.tts.Name()); err != nil {
			return err
		}
	}
	if provider.Supports(speech.ModelTypeSpeech2Text) {
		p.stt = elevenlabs.NewSTT(cfg, p.logger)
		p.registry.RegisterSTT(p.stt.Name(), p.stt)
		if err := p.registry.SetDefaultSTT(p.stt.Name()); err != nil {
			return err
		}
	}
	p.probe = elevenlabs.NewClient(cfg)

	if p.opts.Redis != nil {
		p.voiceCache = NewVoiceCache(p.opts.Redis, p.opts.VoiceCacheTTL, p.logger)
	}
	return nil
}

func (p *SpeechPlugin) vendorConfig(creds Credentials) elevenlabs.Config {
	cfg := elevenlabs.DefaultConfig()
	cfg.APIKey = creds.Get("api_key")
	if p.opts.BaseURL != "" {
		cfg.BaseURL = p.opts.BaseURL
	}
	if p.opts.HTTPTimeout > 0 {
		cfg.Timeout = p.opts.HTTPTimeout
	}
	cfg.RequestsPerSecond = p.opts.RequestsPerSecond
	return cfg
}

// Shutdown 结束插件生命周期。Provider 本身无长连接可回收，
// 这里只负责状态迁移与缓存失效。
func (p *SpeechPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.voiceCache != nil && p.tts != nil {
		p.voiceCache.Invalidate(ctx, p.tts.Name())
	}
	p.state = StateShutdown
	p.logger.Info("speech plugin shut down")
	return nil
}

// Metadata returns the host-facing descriptor summary.
func (p *SpeechPlugin) Metadata() Metadata {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.bundle == nil {
		return Metadata{Version: Version}
	}
	provider := p.bundle.Provider
	return Metadata{
		Name:        provider.Provider,
		Version:     Version,
		Label:       provider.Label.Get("en_US"),
		Description: provider.Description.Get("en_US"),
		ModelTypes:  provider.SupportedModelTypes,
	}
}

// Catalog returns the loaded model catalog. Nil before Init.
func (p *SpeechPlugin) Catalog() *Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.catalog
}

// Registry returns the provider registry backing this plugin.
func (p *SpeechPlugin) Registry() *speech.Registry { return p.registry }

// ValidateCredentials 对供应商做一次轻量探活，校验当前凭据可用。
// 对应 provider 级凭据校验：探测默认音色参数端点。
func (p *SpeechPlugin) ValidateCredentials(ctx context.Context) error {
	p.mu.RLock()
	probe := p.probe
	p.mu.RUnlock()
	if probe == nil {
		return speech.NewError(speech.ErrProviderUnavailable, "plugin not initialized")
	}
	err := p.validateWith(ctx, probe)
	observeCredentialCheck(providerNameOf(p.bundle), err)
	return err
}

func (p *SpeechPlugin) validateProviderCredentials(ctx context.Context) error {
	err := p.validateWith(ctx, p.probe)
	observeCredentialCheck(providerNameOf(p.bundle), err)
	return err
}

func (p *SpeechPlugin) validateWith(ctx context.Context, probe *elevenlabs.Client) error {
	if _, err := probe.DefaultVoiceSettings(ctx); err != nil {
		return &speech.Error{
			Code:    speech.ErrCredentialsInvalid,
			Message: "provider credential check failed: " + err.Error(),
		}
	}
	return nil
}

func providerNameOf(b *manifest.Bundle) string {
	if b == nil {
		return "unknown"
	}
	return b.Provider.Provider
}

// Synthesize invokes a TTS model from the catalog. The model must be
// one of the bundle's predefined tts definitions. Per-request
// credentials placed in ctx via WithCredentials take precedence over
// the plugin-level ones.
func (p *SpeechPlugin) Synthesize(ctx context.Context, model string, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	started := time.Now()
	resp, err := p.synthesize(ctx, model, req)
	observeInvoke(speech.ModelTypeTTS, model, started, err)
	return resp, err
}

func (p *SpeechPlugin) synthesize(ctx context.Context, model string, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	provider, def, err := p.ttsFor(ctx, model)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, speech.NewError(speech.ErrInvalidRequest, "request is required")
	}

	invokeReq := *req
	invokeReq.Model = model
	if invokeReq.TraceID == "" {
		invokeReq.TraceID = uuid.NewString()
	}
	if invokeReq.Voice == "" {
		invokeReq.Voice = def.ModelProperties.DefaultVoice
	}
	if limit := def.ModelProperties.WordLimit; limit > 0 && len(invokeReq.Text) > limit {
		return nil, speech.NewError(speech.ErrInvalidRequest,
			fmt.Sprintf("text exceeds model limit of %d characters", limit))
	}
	return provider.Synthesize(ctx, &invokeReq)
}

// Transcribe invokes an STT model from the catalog.
func (p *SpeechPlugin) Transcribe(ctx context.Context, model string, req *speech.STTRequest) (*speech.STTResponse, error) {
	started := time.Now()
	resp, err := p.transcribe(ctx, model, req)
	observeInvoke(speech.ModelTypeSpeech2Text, model, started, err)
	return resp, err
}

func (p *SpeechPlugin) transcribe(ctx context.Context, model string, req *speech.STTRequest) (*speech.STTResponse, error) {
	provider, _, err := p.sttFor(ctx, model)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, speech.NewError(speech.ErrInvalidRequest, "request is required")
	}

	invokeReq := *req
	invokeReq.Model = model
	if invokeReq.TraceID == "" {
		invokeReq.TraceID = uuid.NewString()
	}
	return provider.Transcribe(ctx, &invokeReq)
}

// ttsFor resolves the provider and definition for a TTS invoke,
// honoring per-request credential overrides from ctx.
func (p *SpeechPlugin) ttsFor(ctx context.Context, model string) (*elevenlabs.TTS, *manifest.ModelDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateInitialized || p.tts == nil {
		return nil, nil, speech.NewError(speech.ErrProviderUnavailable, "plugin not initialized for tts")
	}
	def, ok := p.catalog.Model(speech.ModelTypeTTS, model)
	if !ok {
		return nil, nil, speech.NewError(speech.ErrModelNotFound, fmt.Sprintf("tts model %q not in bundle", model))
	}

	if creds, ok := CredentialsFromContext(ctx); ok {
		if err := creds.Validate(p.bundle.Provider.CredentialSchemaFor(speech.ModelTypeTTS)); err != nil {
			return nil, nil, err
		}
		return elevenlabs.NewTTS(p.vendorConfig(creds), p.logger), def, nil
	}
	return p.tts, def, nil
}

func (p *SpeechPlugin) sttFor(ctx context.Context, model string) (*elevenlabs.STT, *manifest.ModelDefinition, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state != StateInitialized || p.stt == nil {
		return nil, nil, speech.NewError(speech.ErrProviderUnavailable, "plugin not initialized for speech2text")
	}
	def, ok := p.catalog.Model(speech.ModelTypeSpeech2Text, model)
	if !ok {
		return nil, nil, speech.NewError(speech.ErrModelNotFound, fmt.Sprintf("speech2text model %q not in bundle", model))
	}

	if creds, ok := CredentialsFromContext(ctx); ok {
		if err := creds.Validate(p.bundle.Provider.CredentialSchemaFor(speech.ModelTypeSpeech2Text)); err != nil {
			return nil, nil, err
		}
		return elevenlabs.NewSTT(p.vendorConfig(creds), p.logger), def, nil
	}
	return p.stt, def, nil
}
