package elevenlabs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/speechflow/speech"
)

// TTS 通过 ElevenLabs API 实现 speech.TTSProvider。
type TTS struct {
	cfg    Config
	client *Client
	logger *zap.Logger
}

var _ speech.TTSProvider = (*TTS)(nil)

// NewTTS 创建 ElevenLabs TTS Provider。
func NewTTS(cfg Config, logger *zap.Logger) *TTS {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = defaultTTSModel
	}
	return &TTS{
		cfg:    cfg,
		client: NewClient(cfg),
		logger: logger.With(zap.String("provider", providerName), zap.String("model_type", string(speech.ModelTypeTTS))),
	}
}

func (p *TTS) Name() string { return providerName }

// Synthesize 将文本合成为音频流。音色按名称大小写不敏感匹配，
// 未命中时回退到账号下第一个可用音色。
func (p *TTS) Synthesize(ctx context.Context, req *speech.TTSRequest) (*speech.TTSResponse, error) {
	if req == nil || req.Text == "" {
		return nil, speech.NewError(speech.ErrInvalidRequest, "text is required")
	}

	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	voiceID, err := p.resolveVoiceID(ctx, req.Voice)
	if err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = defaultOutputFormat
	}

	audio, err := p.client.TextToSpeech(ctx, voiceID, req.Text, model, format)
	if err != nil {
		p.logger.Warn("synthesize failed",
			zap.String("model", model),
			zap.String("voice_id", voiceID),
			zap.String("trace_id", req.TraceID),
			zap.Error(err))
		return nil, err
	}

	return &speech.TTSResponse{
		Provider:  providerName,
		Model:     model,
		VoiceID:   voiceID,
		Audio:     audio,
		Format:    format,
		CharCount: len(req.Text),
		CreatedAt: time.Now(),
	}, nil
}

// SynthesizeToFile 合成并写入本地文件。
func (p *TTS) SynthesizeToFile(ctx context.Context, req *speech.TTSRequest, path string) error {
	resp, err := p.Synthesize(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Audio.Close()

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Audio); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	return nil
}

// ListVoices 返回当前凭据下可用的音色。
func (p *TTS) ListVoices(ctx context.Context) ([]speech.Voice, error) {
	apiVoices, err := p.client.Voices(ctx)
	if err != nil {
		return nil, err
	}

	voices := make([]speech.Voice, len(apiVoices))
	for i, v := range apiVoices {
		voices[i] = speech.Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Gender:      v.Labels.Gender,
			Description: v.Labels.Description,
			PreviewURL:  v.PreviewURL,
		}
	}
	return voices, nil
}

// ValidateCredentials 通过拉取音色列表校验 API Key。
func (p *TTS) ValidateCredentials(ctx context.Context) error {
	if p.cfg.APIKey == "" {
		return speech.NewError(speech.ErrCredentialsInvalid, "api key is required")
	}
	if _, err := p.client.Voices(ctx); err != nil {
		return &speech.Error{
			Code:     speech.ErrCredentialsInvalid,
			Message:  "credential check failed: " + err.Error(),
			Provider: providerName,
		}
	}
	return nil
}

// resolveVoiceID 将请求中的音色解析为 voice_id：
// 配置的 voice_id 优先，其次按名称匹配，最后回退第一个可用音色。
func (p *TTS) resolveVoiceID(ctx context.Context, requested string) (string, error) {
	if requested == "" && p.cfg.VoiceID != "" {
		return p.cfg.VoiceID, nil
	}

	voices, err := p.client.Voices(ctx)
	if err != nil {
		return "", err
	}

	if requested != "" {
		for _, v := range voices {
			if v.VoiceID == requested || strings.EqualFold(v.Name, requested) {
				return v.VoiceID, nil
			}
		}
		p.logger.Debug("requested voice not found, falling back", zap.String("voice", requested))
	}

	if len(voices) == 0 {
		return "", speech.NewError(speech.ErrInvalidRequest, "no voices available for this account")
	}
	return voices[0].VoiceID, nil
}
