package elevenlabs

import "time"

// Config 配置 ElevenLabs Provider。
type Config struct {
	APIKey   string        `json:"api_key" yaml:"api_key"`
	BaseURL  string        `json:"base_url" yaml:"base_url"`
	Model    string        `json:"model,omitempty" yaml:"model,omitempty"`         // TTS 默认模型
	STTModel string        `json:"stt_model,omitempty" yaml:"stt_model,omitempty"` // STT 默认模型
	VoiceID  string        `json:"voice_id,omitempty" yaml:"voice_id,omitempty"`
	Timeout  time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// RequestsPerSecond 客户端侧请求节流，0 表示不限制。
	RequestsPerSecond float64 `json:"requests_per_second,omitempty" yaml:"requests_per_second,omitempty"`
}

// DefaultConfig 返回默认的 ElevenLabs 配置。
func DefaultConfig() Config {
	return Config{
		BaseURL:  "https://api.elevenlabs.io",
		Model:    defaultTTSModel,
		STTModel: defaultSTTModel,
		Timeout:  60 * time.Second,
	}
}

const (
	defaultTTSModel     = "eleven_turbo_v2"
	defaultSTTModel     = "scribe_v1"
	defaultOutputFormat = "mp3_44100_128"
	defaultSTTLanguage  = "eng"
)
