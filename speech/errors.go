package speech

import "errors"

// 统一的语音服务错误码，用于对齐 HTTP 状态、可重试性与降级策略。
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "SPEECH_INVALID_REQUEST"      // 参数/格式错误
	ErrUnauthorized        ErrorCode = "SPEECH_UNAUTHORIZED"         // 未授权或密钥失效
	ErrForbidden           ErrorCode = "SPEECH_FORBIDDEN"            // 权限或内容策略拒绝
	ErrRateLimited         ErrorCode = "SPEECH_RATE_LIMITED"         // 上游或本地限流
	ErrQuotaExceeded       ErrorCode = "SPEECH_QUOTA_EXCEEDED"       // 字符额度/配额用尽
	ErrModelNotFound       ErrorCode = "SPEECH_MODEL_NOT_FOUND"      // 模型未在 bundle 中定义
	ErrUpstreamTimeout     ErrorCode = "SPEECH_UPSTREAM_TIMEOUT"     // 上游超时
	ErrUpstreamError       ErrorCode = "SPEECH_UPSTREAM_ERROR"       // 上游 5xx/网络错误
	ErrProviderUnavailable ErrorCode = "SPEECH_PROVIDER_UNAVAILABLE" // Provider 未注册或不可用
	ErrInvalidManifest     ErrorCode = "SPEECH_INVALID_MANIFEST"     // 描述文件不满足 schema
	ErrCredentialsInvalid  ErrorCode = "SPEECH_CREDENTIALS_INVALID"  // 凭据缺失或校验失败
)

// Error 结构化的语音服务错误。
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// NewError 构造指定错误码的 *Error。
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf 提取错误链中的 ErrorCode，非 *Error 返回空串。
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsRetryable 判断错误是否可重试。
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
