package plugin

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/speechflow/speech"
)

// ============================================================
// Fixtures
// ============================================================

// writeBundleDir lays out a loadable bundle tree and returns the
// manifest path.
func writeBundleDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models", "tts"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models", "speech2text"), 0755))

	files := map[string]string{
		"manifest.yaml": `
provider: elevenlabs
label:
  en_US: ElevenLabs
  zh_Hans: ElevenLabs
description:
  en_US: Realistic speech models.
supported_model_types:
  - tts
  - speech2text
configurate_methods:
  - predefined-model
provider_credential_schema:
  credential_form_schemas:
    - variable: api_key
      type: secret-input
      required: true
      label:
        en_US: API Key
        zh_Hans: API 密钥
models:
  tts:
    predefined:
      - "models/tts/*.yaml"
  speech2text:
    predefined:
      - "models/speech2text/*.yaml"
`,
		"models/tts/eleven_turbo_v2.yaml": `
model: eleven_turbo_v2
model_type: tts
label:
  en_US: Eleven Turbo v2
model_properties:
  default_voice: Rachel
  word_limit: 40
  audio_type: mp3
`,
		"models/speech2text/scribe_v1.yaml": `
model: scribe_v1
model_type: speech2text
label:
  en_US: Scribe v1
model_properties:
  file_upload_limit: 25
`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return filepath.Join(dir, "manifest.yaml")
}

// writeModelSchemaBundleDir 生成只声明 model_credential_schema 的包。
func writeModelSchemaBundleDir(t *testing.T) string {
	t.Helper()
	path := writeBundleDir(t)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	patched := strings.Replace(string(data), "provider_credential_schema:", "model_credential_schema:", 1)
	require.NoError(t, os.WriteFile(path, []byte(patched), 0644))
	return path
}

// fakeVendor 模拟插件会触达的全部供应商端点,并记录收到的 API Key。
func fakeVendor(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var keys []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keys = append(keys, r.Header.Get("xi-api-key"))
		switch {
		case r.URL.Path == "/v1/voices":
			w.Write([]byte(`{"voices":[{"voice_id":"21m00Tcm4TlvDq8ikWAM","name":"Rachel"}]}`))
		case r.URL.Path == "/v1/voices/settings/default":
			w.Write([]byte(`{"stability":0.5,"similarity_boost":0.75,"use_speaker_boost":true}`))
		case r.URL.Path == "/v1/models":
			w.Write([]byte(`[{"model_id":"scribe_v1"}]`))
		case r.URL.Path == "/v1/speech-to-text":
			w.Write([]byte(`{"language_code":"eng","text":"Hello."}`))
		case strings.HasPrefix(r.URL.Path, "/v1/text-to-speech/"):
			w.Write([]byte("audio-data"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return server, &keys
}

func newTestPlugin(t *testing.T, baseURL string) *SpeechPlugin {
	t.Helper()
	p := New(Options{
		BundlePath:  writeBundleDir(t),
		Credentials: Credentials{"api_key": "test-key"},
		BaseURL:     baseURL,
	})
	require.NoError(t, p.Init(context.Background()))
	return p
}

// ============================================================
// Lifecycle tests
// ============================================================

func TestPlugin_InitAndMetadata(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := New(Options{
		BundlePath:  writeBundleDir(t),
		Credentials: Credentials{"api_key": "test-key"},
		BaseURL:     server.URL,
	})
	assert.Equal(t, StateCreated, p.State())
	assert.Equal(t, "", p.Name())

	require.NoError(t, p.Init(context.Background()))
	assert.Equal(t, StateInitialized, p.State())
	assert.Equal(t, "elevenlabs", p.Name())
	assert.Equal(t, Version, p.Version())

	meta := p.Metadata()
	assert.Equal(t, "elevenlabs", meta.Name)
	assert.Equal(t, "ElevenLabs", meta.Label)
	assert.Equal(t, "Realistic speech models.", meta.Description)
	assert.Equal(t, []speech.ModelType{speech.ModelTypeTTS, speech.ModelTypeSpeech2Text}, meta.ModelTypes)

	// 幂等
	require.NoError(t, p.Init(context.Background()))

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Equal(t, StateShutdown, p.State())
}

func TestPlugin_Init_NoBundlePath(t *testing.T) {
	p := New(Options{})
	err := p.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, speech.ErrInvalidManifest, speech.CodeOf(err))
	assert.Equal(t, StateFailed, p.State())
}

func TestPlugin_Init_MissingCredentials(t *testing.T) {
	p := New(Options{BundlePath: writeBundleDir(t)})
	err := p.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, speech.ErrCredentialsInvalid, speech.CodeOf(err))
	assert.Contains(t, err.Error(), "api_key")
}

func TestPlugin_Init_ModelSchemaOnlyCredentials(t *testing.T) {
	server, keys := fakeVendor(t)
	defer server.Close()

	path := writeModelSchemaBundleDir(t)

	// 必填 api_key 缺失时初始化即失败,供应商不被触达
	p := New(Options{BundlePath: path, BaseURL: server.URL})
	err := p.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, speech.ErrCredentialsInvalid, speech.CodeOf(err))
	assert.Equal(t, StateFailed, p.State())
	assert.Empty(t, *keys)

	// 补上凭据后照常初始化并可调用
	p = New(Options{BundlePath: path, Credentials: Credentials{"api_key": "k"}, BaseURL: server.URL})
	require.NoError(t, p.Init(context.Background()))
	resp, err := p.Synthesize(context.Background(), "eleven_turbo_v2", &speech.TTSRequest{Text: "hi"})
	require.NoError(t, err)
	resp.Audio.Close()
}

func TestPlugin_Init_InvalidManifest(t *testing.T) {
	path := writeBundleDir(t)
	// 去掉 tts 定义文件,使 glob 落空
	require.NoError(t, os.Remove(filepath.Join(filepath.Dir(path), "models", "tts", "eleven_turbo_v2.yaml")))

	p := New(Options{BundlePath: path, Credentials: Credentials{"api_key": "k"}})
	err := p.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, speech.ErrInvalidManifest, speech.CodeOf(err))
	assert.Equal(t, StateFailed, p.State())
}

func TestPlugin_Init_ProbeOnInit(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := New(Options{
		BundlePath:  writeBundleDir(t),
		Credentials: Credentials{"api_key": "test-key"},
		BaseURL:     server.URL,
		ProbeOnInit: true,
	})
	require.NoError(t, p.Init(context.Background()))
}

func TestPlugin_Init_ProbeRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":{"status":"invalid_api_key","message":"Invalid API key."}}`))
	}))
	defer server.Close()

	p := New(Options{
		BundlePath:  writeBundleDir(t),
		Credentials: Credentials{"api_key": "bad"},
		BaseURL:     server.URL,
		ProbeOnInit: true,
	})
	err := p.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, speech.ErrCredentialsInvalid, speech.CodeOf(err))
	assert.Equal(t, StateFailed, p.State())
}

func TestPlugin_ValidateCredentials(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	assert.NoError(t, p.ValidateCredentials(context.Background()))

	uninitialized := New(Options{})
	err := uninitialized.ValidateCredentials(context.Background())
	require.Error(t, err)
	assert.Equal(t, speech.ErrProviderUnavailable, speech.CodeOf(err))
}

// ============================================================
// Invoke tests
// ============================================================

func TestPlugin_Synthesize(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	resp, err := p.Synthesize(context.Background(), "eleven_turbo_v2", &speech.TTSRequest{Text: "hello"})
	require.NoError(t, err)
	defer resp.Audio.Close()

	assert.Equal(t, "eleven_turbo_v2", resp.Model)
	// 定义文件里的 default_voice 解析为 Rachel 的 voice_id
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", resp.VoiceID)

	data, err := io.ReadAll(resp.Audio)
	require.NoError(t, err)
	assert.Equal(t, "audio-data", string(data))
}

func TestPlugin_Synthesize_WordLimit(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	long := strings.Repeat("a", 41) // definition caps at 40
	_, err := p.Synthesize(context.Background(), "eleven_turbo_v2", &speech.TTSRequest{Text: long})
	require.Error(t, err)
	assert.Equal(t, speech.ErrInvalidRequest, speech.CodeOf(err))
	assert.Contains(t, err.Error(), "exceeds model limit")
}

func TestPlugin_Synthesize_ModelNotFound(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	_, err := p.Synthesize(context.Background(), "eleven_monolingual_v1", &speech.TTSRequest{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, speech.ErrModelNotFound, speech.CodeOf(err))
}

func TestPlugin_Synthesize_NotInitialized(t *testing.T) {
	p := New(Options{})
	_, err := p.Synthesize(context.Background(), "eleven_turbo_v2", &speech.TTSRequest{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, speech.ErrProviderUnavailable, speech.CodeOf(err))
}

func TestPlugin_Synthesize_NilRequest(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	_, err := p.Synthesize(context.Background(), "eleven_turbo_v2", nil)
	require.Error(t, err)
	assert.Equal(t, speech.ErrInvalidRequest, speech.CodeOf(err))
}

func TestPlugin_Transcribe(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	resp, err := p.Transcribe(context.Background(), "scribe_v1", &speech.STTRequest{
		Audio: strings.NewReader("fake-audio"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello.", resp.Text)
	assert.Equal(t, "scribe_v1", resp.Model)
	assert.Equal(t, "eng", resp.Language)
}

func TestPlugin_Transcribe_ModelNotFound(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	_, err := p.Transcribe(context.Background(), "whisper-1", &speech.STTRequest{Audio: strings.NewReader("x")})
	require.Error(t, err)
	assert.Equal(t, speech.ErrModelNotFound, speech.CodeOf(err))
}

// ============================================================
// Per-request credential overrides
// ============================================================

func TestPlugin_Synthesize_CredentialOverride(t *testing.T) {
	server, keys := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	ctx := WithCredentials(context.Background(), Credentials{"api_key": "override-key"})
	resp, err := p.Synthesize(ctx, "eleven_turbo_v2", &speech.TTSRequest{Text: "hi"})
	require.NoError(t, err)
	resp.Audio.Close()

	// 覆盖凭据作用于本次调用的全部请求
	assert.Contains(t, *keys, "override-key")
	assert.NotContains(t, *keys, "test-key")
}

func TestPlugin_Synthesize_InvalidCredentialOverride(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	ctx := WithCredentials(context.Background(), Credentials{"api_key": "  "})
	_, err := p.Synthesize(ctx, "eleven_turbo_v2", &speech.TTSRequest{Text: "hi"})
	require.Error(t, err)
	assert.Equal(t, speech.ErrCredentialsInvalid, speech.CodeOf(err))
}

func TestPlugin_Transcribe_CredentialOverride(t *testing.T) {
	server, keys := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)
	ctx := WithCredentials(context.Background(), Credentials{"api_key": "stt-override"})
	_, err := p.Transcribe(ctx, "scribe_v1", &speech.STTRequest{Audio: strings.NewReader("x")})
	require.NoError(t, err)
	assert.Contains(t, *keys, "stt-override")
}

// ============================================================
// Registry wiring
// ============================================================

func TestPlugin_RegistryDefaults(t *testing.T) {
	server, _ := fakeVendor(t)
	defer server.Close()

	p := newTestPlugin(t, server.URL)

	tts, err := p.Registry().DefaultTTS()
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", tts.Name())

	stt, err := p.Registry().DefaultSTT()
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", stt.Name())
}
