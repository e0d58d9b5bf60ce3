package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/BaSui01/speechflow/providers/elevenlabs"

// Client 封装 ElevenLabs HTTP API，统一鉴权、节流与错误映射。
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
}

// NewClient 创建 ElevenLabs API 客户端。
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		tracer:  otel.Tracer(tracerName),
	}
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + path
}

// do 发送请求并做统一的鉴权头、节流与状态码映射。
// 调用方负责关闭返回的 Body。
func (c *Client) do(ctx context.Context, req *http.Request, op string) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "elevenlabs."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("url.path", req.URL.Path),
		))
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	req = req.WithContext(ctx)
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, mapTransportError(err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		msg := readErrorMessage(resp.Body)
		span.SetStatus(codes.Error, msg)
		return nil, mapStatusError(resp.StatusCode, msg)
	}
	return resp, nil
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// 原插件固定下发的音色参数。
func defaultVoiceSettings() voiceSettings {
	return voiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		Style:           0,
		UseSpeakerBoost: true,
	}
}

type ttsConvertRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// TextToSpeech 调用 /v1/text-to-speech/{voice_id}，返回音频流。
func (c *Client) TextToSpeech(ctx context.Context, voiceID, text, modelID, outputFormat string) (io.ReadCloser, error) {
	if outputFormat == "" {
		outputFormat = defaultOutputFormat
	}
	body := ttsConvertRequest{
		Text:          text,
		ModelID:       modelID,
		VoiceSettings: defaultVoiceSettings(),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	url := c.endpoint("/v1/text-to-speech/"+voiceID) + "?output_format=" + outputFormat
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(ctx, req, "text_to_speech")
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// APIVoice /v1/voices 返回的音色条目。
type APIVoice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Labels   struct {
		Gender      string `json:"gender"`
		Accent      string `json:"accent"`
		Description string `json:"description"`
	} `json:"labels"`
	PreviewURL string `json:"preview_url,omitempty"`
}

type voicesResponse struct {
	Voices []APIVoice `json:"voices"`
}

// Voices 返回当前凭据下可用的音色列表。
func (c *Client) Voices(ctx context.Context) ([]APIVoice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/voices"), nil)
	if err != nil {
		return nil, fmt.Errorf("create voices request: %w", err)
	}

	resp, err := c.do(ctx, req, "voices")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out voicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, mapDecodeError(err)
	}
	return out.Voices, nil
}

// VoiceSettings /v1/voices/settings/default 返回的全局默认参数。
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultVoiceSettings 是最轻量的鉴权探活端点，Provider 凭据校验用。
func (c *Client) DefaultVoiceSettings(ctx context.Context) (*VoiceSettings, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/voices/settings/default"), nil)
	if err != nil {
		return nil, fmt.Errorf("create settings request: %w", err)
	}

	resp, err := c.do(ctx, req, "default_voice_settings")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out VoiceSettings
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, mapDecodeError(err)
	}
	return &out, nil
}

// APIModel /v1/models 返回的模型条目。
type APIModel struct {
	ModelID              string `json:"model_id"`
	Name                 string `json:"name"`
	CanDoTextToSpeech    bool   `json:"can_do_text_to_speech"`
	CanDoVoiceConversion bool   `json:"can_do_voice_conversion"`
}

// Models 返回服务端声明的全部模型。
func (c *Client) Models(ctx context.Context) ([]APIModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/models"), nil)
	if err != nil {
		return nil, fmt.Errorf("create models request: %w", err)
	}

	resp, err := c.do(ctx, req, "models")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out []APIModel
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, mapDecodeError(err)
	}
	return out, nil
}

// STTWord 转写结果中的词条目。type 取 word/spacing/audio_event。
type STTWord struct {
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Type      string  `json:"type,omitempty"`
	SpeakerID string  `json:"speaker_id,omitempty"`
}

// STTResult /v1/speech-to-text 的响应。
type STTResult struct {
	LanguageCode string    `json:"language_code,omitempty"`
	Text         string    `json:"text"`
	Words        []STTWord `json:"words,omitempty"`
}

// SpeechToTextParams 控制一次转写调用。
type SpeechToTextParams struct {
	ModelID        string
	LanguageCode   string
	Diarize        bool
	TagAudioEvents bool
	Filename       string
}

// SpeechToText 以 multipart 上传音频并调用 /v1/speech-to-text。
func (c *Client) SpeechToText(ctx context.Context, audio io.Reader, params SpeechToTextParams) (*STTResult, error) {
	filename := params.Filename
	if filename == "" {
		filename = "audio"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("copy audio: %w", err)
	}
	fields := map[string]string{
		"model_id":         params.ModelID,
		"language_code":    params.LanguageCode,
		"diarize":          strconv.FormatBool(params.Diarize),
		"tag_audio_events": strconv.FormatBool(params.TagAudioEvents),
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/speech-to-text"), &buf)
	if err != nil {
		return nil, fmt.Errorf("create stt request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(ctx, req, "speech_to_text")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out STTResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, mapDecodeError(err)
	}
	return &out, nil
}
