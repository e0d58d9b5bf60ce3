package manifest

import (
	"github.com/BaSui01/speechflow/speech"
)

// ModelDefinition is one predefined model shipped as a static YAML file
// inside the bundle, referenced from the manifest's models mapping.
type ModelDefinition struct {
	Model           string           `yaml:"model" json:"model"`
	ModelType       speech.ModelType `yaml:"model_type" json:"model_type"`
	Label           LocalizedString  `yaml:"label,omitempty" json:"label,omitempty"`
	ModelProperties ModelProperties  `yaml:"model_properties,omitempty" json:"model_properties,omitempty"`
	Pricing         *Pricing         `yaml:"pricing,omitempty" json:"pricing,omitempty"`
	Deprecated      bool             `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`

	// SourceFile is the path the definition was loaded from, filled in
	// by the bundle loader. Not part of the YAML schema.
	SourceFile string `yaml:"-" json:"-"`
}

// ModelProperties holds per-model-type tuning knobs. TTS models use
// DefaultVoice/Voices/WordLimit/AudioType; STT models use the file
// upload fields.
type ModelProperties struct {
	DefaultVoice            string        `yaml:"default_voice,omitempty" json:"default_voice,omitempty"`
	Voices                  []VoiceOption `yaml:"voices,omitempty" json:"voices,omitempty"`
	WordLimit               int           `yaml:"word_limit,omitempty" json:"word_limit,omitempty"`
	AudioType               string        `yaml:"audio_type,omitempty" json:"audio_type,omitempty"`
	MaxWorkers              int           `yaml:"max_workers,omitempty" json:"max_workers,omitempty"`
	FileUploadLimit         int           `yaml:"file_upload_limit,omitempty" json:"file_upload_limit,omitempty"`
	SupportedFileExtensions []string      `yaml:"supported_file_extensions,omitempty" json:"supported_file_extensions,omitempty"`
}

// VoiceOption is one selectable voice in a TTS model definition.
// Mode is the vendor-side voice identifier.
type VoiceOption struct {
	Mode      string   `yaml:"mode" json:"mode"`
	Name      string   `yaml:"name" json:"name"`
	Languages []string `yaml:"language,omitempty" json:"language,omitempty"`
}

// Pricing 计价声明，单位与币种由宿主结算层解释。
type Pricing struct {
	Input    string `yaml:"input,omitempty" json:"input,omitempty"`
	Unit     string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Currency string `yaml:"currency,omitempty" json:"currency,omitempty"`
}
