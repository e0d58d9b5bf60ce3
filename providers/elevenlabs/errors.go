package elevenlabs

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/BaSui01/speechflow/speech"
)

const providerName = "elevenlabs"

// readErrorMessage 尽力从错误响应体中取出 detail 文本。
func readErrorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	var parsed struct {
		Detail struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Detail.Message != "" {
		return parsed.Detail.Message
	}
	return strings.TrimSpace(string(data))
}

// mapStatusError 将 ElevenLabs HTTP 状态码映射为统一错误码。
func mapStatusError(status int, msg string) *speech.Error {
	switch status {
	case http.StatusUnauthorized:
		return &speech.Error{Code: speech.ErrUnauthorized, Message: msg, HTTPStatus: status, Provider: providerName}
	case http.StatusForbidden:
		return &speech.Error{Code: speech.ErrForbidden, Message: msg, HTTPStatus: status, Provider: providerName}
	case http.StatusTooManyRequests:
		return &speech.Error{Code: speech.ErrRateLimited, Message: msg, HTTPStatus: status, Retryable: true, Provider: providerName}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		// ElevenLabs 在额度用尽时也返回 4xx，靠 detail 文本区分
		if strings.Contains(strings.ToLower(msg), "quota") || strings.Contains(strings.ToLower(msg), "character limit") {
			return &speech.Error{Code: speech.ErrQuotaExceeded, Message: msg, HTTPStatus: status, Provider: providerName}
		}
		return &speech.Error{Code: speech.ErrInvalidRequest, Message: msg, HTTPStatus: status, Provider: providerName}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &speech.Error{Code: speech.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: true, Provider: providerName}
	default:
		return &speech.Error{Code: speech.ErrUpstreamError, Message: msg, HTTPStatus: status, Retryable: status >= 500, Provider: providerName}
	}
}

// mapTransportError 将网络层错误映射为统一错误码。
func mapTransportError(err error) *speech.Error {
	if errors.Is(err, os.ErrDeadlineExceeded) || isTimeout(err) {
		return &speech.Error{Code: speech.ErrUpstreamTimeout, Message: err.Error(), Retryable: true, Provider: providerName}
	}
	return &speech.Error{Code: speech.ErrUpstreamError, Message: err.Error(), Retryable: true, Provider: providerName}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// mapDecodeError 响应体不是预期 JSON 时归为参数/格式错误。
func mapDecodeError(err error) *speech.Error {
	return &speech.Error{Code: speech.ErrInvalidRequest, Message: "decode response: " + err.Error(), Provider: providerName}
}
