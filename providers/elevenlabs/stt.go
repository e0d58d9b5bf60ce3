package elevenlabs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/speechflow/speech"
)

// STT 通过 ElevenLabs Scribe API 实现 speech.STTProvider。
type STT struct {
	cfg    Config
	client *Client
	logger *zap.Logger
}

var _ speech.STTProvider = (*STT)(nil)

// NewSTT 创建 ElevenLabs STT Provider。
func NewSTT(cfg Config, logger *zap.Logger) *STT {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.STTModel == "" {
		cfg.STTModel = defaultSTTModel
	}
	return &STT{
		cfg:    cfg,
		client: NewClient(cfg),
		logger: logger.With(zap.String("provider", providerName), zap.String("model_type", string(speech.ModelTypeSpeech2Text))),
	}
}

func (p *STT) Name() string { return providerName }

// Transcribe 将音频流转写为文本。
func (p *STT) Transcribe(ctx context.Context, req *speech.STTRequest) (*speech.STTResponse, error) {
	if req == nil || req.Audio == nil {
		return nil, speech.NewError(speech.ErrInvalidRequest, "audio is required")
	}

	model := req.Model
	if model == "" {
		model = p.cfg.STTModel
	}
	language := req.Language
	if language == "" {
		language = defaultSTTLanguage
	}

	result, err := p.client.SpeechToText(ctx, req.Audio, SpeechToTextParams{
		ModelID:        model,
		LanguageCode:   language,
		Diarize:        req.Diarize,
		TagAudioEvents: true,
		Filename:       req.Filename,
	})
	if err != nil {
		p.logger.Warn("transcribe failed",
			zap.String("model", model),
			zap.String("trace_id", req.TraceID),
			zap.Error(err))
		return nil, err
	}

	resp := &speech.STTResponse{
		Provider:  providerName,
		Model:     model,
		Text:      result.Text,
		Language:  result.LanguageCode,
		CreatedAt: time.Now(),
	}
	resp.Words, resp.Segments = convertWords(result.Words)
	return resp, nil
}

// TranscribeFile 转写本地音频文件。
func (p *STT) TranscribeFile(ctx context.Context, path string, opts *speech.STTRequest) (*speech.STTResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	req := speech.STTRequest{}
	if opts != nil {
		req = *opts
	}
	req.Audio = file
	if req.Filename == "" {
		req.Filename = filepath.Base(path)
	}
	return p.Transcribe(ctx, &req)
}

// SupportedFormats 返回支持上传的音频格式扩展名。
func (p *STT) SupportedFormats() []string {
	return []string{"flac", "mp3", "mp4", "mpeg", "mpga", "m4a", "ogg", "opus", "wav", "webm"}
}

// ValidateCredentials 通过模型列表校验 API Key；空列表视为校验失败。
func (p *STT) ValidateCredentials(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		return speech.NewError(speech.ErrCredentialsInvalid, "api key is required")
	}
	models, err := p.client.Models(ctx)
	if err != nil {
		return &speech.Error{
			Code:     speech.ErrCredentialsInvalid,
			Message:  "credential check failed: " + err.Error(),
			Provider: providerName,
		}
	}
	if len(models) == 0 {
		return speech.NewError(speech.ErrCredentialsInvalid, "credential check failed: no models returned")
	}
	return nil
}

// convertWords 将接口返回的词条转换为统一的词级与片段结果。
// 片段按说话人的连续区间聚合，spacing/audio_event 条目只参与片段文本。
func convertWords(words []STTWord) ([]speech.Word, []speech.Segment) {
	var out []speech.Word
	var segments []speech.Segment
	var current *speech.Segment

	for _, w := range words {
		start := secondsToDuration(w.Start)
		end := secondsToDuration(w.End)

		if w.Type == "" || w.Type == "word" {
			out = append(out, speech.Word{
				Word:    w.Text,
				Start:   start,
				End:     end,
				Speaker: w.SpeakerID,
			})
		}

		if current != nil && current.Speaker == w.SpeakerID {
			current.Text += w.Text
			current.End = end
			continue
		}
		if current != nil {
			segments = append(segments, *current)
		}
		current = &speech.Segment{
			Start:   start,
			End:     end,
			Text:    w.Text,
			Speaker: w.SpeakerID,
		}
	}
	if current != nil {
		segments = append(segments, *current)
	}
	return out, segments
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
