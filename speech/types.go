package speech

import (
	"context"
	"io"
	"time"
)

// ModelType 标识服务商支持的模型类型，取值来自固定词表。
type ModelType string

const (
	// ModelTypeTTS 文本转语音。
	ModelTypeTTS ModelType = "tts"
	// ModelTypeSpeech2Text 语音转文本。
	ModelTypeSpeech2Text ModelType = "speech2text"
)

// Valid 判断模型类型是否在固定词表内。
func (t ModelType) Valid() bool {
	for _, known := range AllModelTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// AllModelTypes 返回固定词表中的全部模型类型。
func AllModelTypes() []ModelType {
	return []ModelType{ModelTypeTTS, ModelTypeSpeech2Text}
}

// ============================================================
// TTS（文本转语音）
// ============================================================

// TTSRequest 标准化的文本转语音请求。
type TTSRequest struct {
	TraceID  string            `json:"trace_id,omitempty"`
	TenantID string            `json:"tenant_id,omitempty"`
	User     string            `json:"user,omitempty"`
	Text     string            `json:"text"`
	Model    string            `json:"model,omitempty"`
	Voice    string            `json:"voice,omitempty"` // 音色名称或 ID，空则用服务商默认
	Format   string            `json:"format,omitempty"` // mp3_44100_128 等服务商格式标识
	Language string            `json:"language,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// TTSResponse 标准化的文本转语音响应，Audio 为合成音频流。
type TTSResponse struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	VoiceID   string        `json:"voice_id,omitempty"`
	Audio     io.ReadCloser `json:"-"`
	Format    string        `json:"format"`
	CharCount int           `json:"char_count,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Voice 描述服务商侧一个可用音色。
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
}

// TTSProvider 文本转语音服务商接口。
type TTSProvider interface {
	// Synthesize 将文本合成为音频流。调用方负责关闭 TTSResponse.Audio。
	Synthesize(ctx context.Context, req *TTSRequest) (*TTSResponse, error)

	// SynthesizeToFile 合成并写入本地文件。
	SynthesizeToFile(ctx context.Context, req *TTSRequest, path string) error

	// ListVoices 返回当前凭据下可用的音色列表。
	ListVoices(ctx context.Context) ([]Voice, error)

	// Name 返回 Provider 的唯一标识。
	Name() string
}

// ============================================================
// STT（语音转文本）
// ============================================================

// STTRequest 标准化的语音转文本请求。
type STTRequest struct {
	TraceID  string            `json:"trace_id,omitempty"`
	TenantID string            `json:"tenant_id,omitempty"`
	User     string            `json:"user,omitempty"`
	Audio    io.Reader         `json:"-"`
	Filename string            `json:"filename,omitempty"` // multipart 文件名，空则用 audio
	Model    string            `json:"model,omitempty"`
	Language string            `json:"language,omitempty"` // ISO-639 语言码
	Diarize  bool              `json:"diarize,omitempty"`  // 说话人分离
	Metadata map[string]string `json:"metadata,omitempty"`
}

// STTResponse 标准化的语音转文本响应。
type STTResponse struct {
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Text      string    `json:"text"`
	Language  string    `json:"language,omitempty"`
	Words     []Word    `json:"words,omitempty"`
	Segments  []Segment `json:"segments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Segment 转写结果中的一个片段。
type Segment struct {
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
	Text    string        `json:"text"`
	Speaker string        `json:"speaker,omitempty"`
}

// Word 带时间戳的词级转写结果。
type Word struct {
	Word    string        `json:"word"`
	Start   time.Duration `json:"start"`
	End     time.Duration `json:"end"`
	Speaker string        `json:"speaker,omitempty"`
}

// STTProvider 语音转文本服务商接口。
type STTProvider interface {
	// Transcribe 将音频流转写为文本。
	Transcribe(ctx context.Context, req *STTRequest) (*STTResponse, error)

	// TranscribeFile 转写本地音频文件，opts 为可选的请求参数（Audio 字段被忽略）。
	TranscribeFile(ctx context.Context, path string, opts *STTRequest) (*STTResponse, error)

	// SupportedFormats 返回支持的音频格式扩展名。
	SupportedFormats() []string

	// Name 返回 Provider 的唯一标识。
	Name() string
}
