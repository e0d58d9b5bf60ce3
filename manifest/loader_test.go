package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/speechflow/speech"
)

// ============================================================
// YAMLLoader tests
// ============================================================

func TestYAMLLoader_LoadProvider_YAML(t *testing.T) {
	content := `
provider: elevenlabs
label:
  en_US: ElevenLabs
  zh_Hans: ElevenLabs
description:
  en_US: Realistic speech models.
background: "#EFFDFD"
help:
  title:
    en_US: Get your API key
  url:
    en_US: https://example.com/keys
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
extra:
  python:
    provider_source: provider/elevenlabs.py
    model_sources:
      - models/tts/tts.py
`
	path := writeTemp(t, "manifest.yaml", content)
	loader := NewYAMLLoader()

	p, err := loader.LoadProvider(path)
	require.NoError(t, err)

	assert.Equal(t, "elevenlabs", p.Provider)
	assert.Equal(t, "ElevenLabs", p.Label.Get("en_US"))
	assert.Equal(t, "Realistic speech models.", p.Description.Get("en_US"))
	assert.Equal(t, "#EFFDFD", p.Background)
	require.NotNil(t, p.Help)
	assert.Equal(t, "https://example.com/keys", p.Help.URL.Get("en_US"))
	assert.Equal(t, []speech.ModelType{speech.ModelTypeTTS, speech.ModelTypeSpeech2Text}, p.SupportedModelTypes)
	assert.Equal(t, []string{MethodPredefinedModel}, p.ConfigurateMethods)

	require.NotNil(t, p.ProviderCredentialSchema)
	field, ok := p.ProviderCredentialSchema.Field("api_key")
	require.True(t, ok)
	assert.Equal(t, FieldTypeSecretInput, field.Type)
	assert.True(t, field.Required)
	assert.Equal(t, "API 密钥", field.Label.Get("zh_Hans"))

	assert.Equal(t, []string{"models/tts/*.yaml"}, p.Models[speech.ModelTypeTTS].Predefined)
	require.NotNil(t, p.Extra)
	require.NotNil(t, p.Extra.Python)
	assert.Equal(t, "provider/elevenlabs.py", p.Extra.Python.ProviderSource)
}

func TestYAMLLoader_LoadProvider_JSON(t *testing.T) {
	content := `{
  "provider": "elevenlabs",
  "label": {"en_US": "ElevenLabs"},
  "supported_model_types": ["tts"],
  "configurate_methods": ["predefined-model"]
}`
	path := writeTemp(t, "manifest.json", content)
	loader := NewYAMLLoader()

	p, err := loader.LoadProvider(path)
	require.NoError(t, err)
	assert.Equal(t, "elevenlabs", p.Provider)
	assert.True(t, p.Supports(speech.ModelTypeTTS))
	assert.False(t, p.Supports(speech.ModelTypeSpeech2Text))
}

func TestYAMLLoader_LoadProvider_NotFound(t *testing.T) {
	loader := NewYAMLLoader()
	_, err := loader.LoadProvider(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read provider manifest")
}

func TestYAMLLoader_LoadProvider_UnsupportedExtension(t *testing.T) {
	path := writeTemp(t, "manifest.toml", "provider = 'x'")
	loader := NewYAMLLoader()

	_, err := loader.LoadProvider(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestYAMLLoader_LoadProvider_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "{{invalid yaml")
	loader := NewYAMLLoader()

	_, err := loader.LoadProvider(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse YAML")
}

func TestYAMLLoader_LoadProviderBytes_UnsupportedFormat(t *testing.T) {
	loader := NewYAMLLoader()
	_, err := loader.LoadProviderBytes([]byte("data"), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

// ============================================================
// LoadBundle tests
// ============================================================

func TestYAMLLoader_LoadBundle(t *testing.T) {
	dir := writeBundle(t)
	loader := NewYAMLLoader()

	bundle, err := loader.LoadBundle(filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, err)

	assert.Equal(t, dir, bundle.Dir)
	assert.Equal(t, "elevenlabs", bundle.Provider.Provider)

	tts := bundle.ModelsOf(speech.ModelTypeTTS)
	require.Len(t, tts, 2)
	// 定义按文件路径稳定排序
	assert.Equal(t, "eleven_flash_v2_5", tts[0].Model)
	assert.Equal(t, "eleven_turbo_v2", tts[1].Model)
	assert.Equal(t, "Rachel", tts[1].ModelProperties.DefaultVoice)
	assert.Equal(t, 5000, tts[1].ModelProperties.WordLimit)
	require.Len(t, tts[1].ModelProperties.Voices, 1)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", tts[1].ModelProperties.Voices[0].Mode)
	assert.Equal(t, "Rachel", tts[1].ModelProperties.Voices[0].Name)

	stt := bundle.ModelsOf(speech.ModelTypeSpeech2Text)
	require.Len(t, stt, 1)
	assert.Equal(t, "scribe_v1", stt[0].Model)
	assert.Equal(t, 25, stt[0].ModelProperties.FileUploadLimit)

	def, ok := bundle.Model(speech.ModelTypeTTS, "eleven_turbo_v2")
	require.True(t, ok)
	assert.NotEmpty(t, def.SourceFile)

	_, ok = bundle.Model(speech.ModelTypeTTS, "nope")
	assert.False(t, ok)
}

func TestYAMLLoader_LoadBundle_EmptyGlobIsNotLoadError(t *testing.T) {
	dir := t.TempDir()
	manifest := `
provider: elevenlabs
label:
  en_US: ElevenLabs
supported_model_types: [tts]
configurate_methods: [predefined-model]
models:
  tts:
    predefined:
      - "models/tts/*.yaml"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.yaml"), []byte(manifest), 0644))

	loader := NewYAMLLoader()
	bundle, err := loader.LoadBundle(filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, err)
	assert.Empty(t, bundle.ModelsOf(speech.ModelTypeTTS))
}

func TestYAMLLoader_LoadBundle_BrokenDefinition(t *testing.T) {
	dir := writeBundle(t)
	bad := filepath.Join(dir, "models", "tts", "broken.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("{{nope"), 0644))

	loader := NewYAMLLoader()
	_, err := loader.LoadBundle(filepath.Join(dir, "manifest.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load model definition")
}

// ============================================================
// LocalizedString tests
// ============================================================

func TestLocalizedString_Get(t *testing.T) {
	s := LocalizedString{"en_US": "API Key", "zh_Hans": "API 密钥"}
	assert.Equal(t, "API 密钥", s.Get("zh_Hans"))
	assert.Equal(t, "API Key", s.Get("fr_FR")) // falls back to en_US

	only := LocalizedString{"zh_Hans": "密钥"}
	assert.Equal(t, "密钥", only.Get("en_US")) // any non-empty locale

	assert.Equal(t, "", LocalizedString{}.Get("en_US"))
}

func TestCredentialSchema_RequiredVariables(t *testing.T) {
	schema := &CredentialSchema{Fields: []CredentialField{
		{Variable: "api_key", Required: true},
		{Variable: "base_url", Required: false},
	}}
	assert.Equal(t, []string{"api_key"}, schema.RequiredVariables())

	var nilSchema *CredentialSchema
	assert.Nil(t, nilSchema.RequiredVariables())
	_, ok := nilSchema.Field("api_key")
	assert.False(t, ok)
}

func TestProvider_CredentialSchemaFor(t *testing.T) {
	providerSchema := &CredentialSchema{Fields: []CredentialField{{Variable: "api_key"}}}
	modelSchema := &CredentialSchema{Fields: []CredentialField{{Variable: "model_key"}}}

	p := &Provider{ProviderCredentialSchema: providerSchema}
	assert.Same(t, providerSchema, p.CredentialSchemaFor(speech.ModelTypeTTS))

	p.ModelCredentialSchema = modelSchema
	assert.Same(t, modelSchema, p.CredentialSchemaFor(speech.ModelTypeTTS))
}

// ============================================================
// detectFormat tests
// ============================================================

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"manifest.yaml", "yaml"},
		{"manifest.YAML", "yaml"},
		{"manifest.yml", "yaml"},
		{"manifest.json", "json"},
		{"manifest.toml", ""},
		{"manifest", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, detectFormat(tt.path))
		})
	}
}

// ============================================================
// Helpers
// ============================================================

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeBundle lays out a minimal valid bundle tree and returns its root.
func writeBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models", "tts"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "models", "speech2text"), 0755))

	manifest := `
provider: elevenlabs
label:
  en_US: ElevenLabs
  zh_Hans: ElevenLabs
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
`
	turbo := `
model: eleven_turbo_v2
model_type: tts
label:
  en_US: Eleven Turbo v2
model_properties:
  default_voice: Rachel
  word_limit: 5000
  audio_type: mp3
  voices:
    - mode: 21m00Tcm4TlvDq8ikWAM
      name: Rachel
      language: [en]
`
	flash := `
model: eleven_flash_v2_5
model_type: tts
label:
  en_US: Eleven Flash v2.5
model_properties:
  default_voice: Rachel
  word_limit: 40000
  audio_type: mp3
`
	scribe := `
model: scribe_v1
model_type: speech2text
label:
  en_US: Scribe v1
model_properties:
  file_upload_limit: 25
  supported_file_extensions: [mp3, wav]
`
	files := map[string]string{
		"manifest.yaml":                     manifest,
		"models/tts/eleven_turbo_v2.yaml":   turbo,
		"models/tts/eleven_flash_v2_5.yaml": flash,
		"models/speech2text/scribe_v1.yaml": scribe,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}
