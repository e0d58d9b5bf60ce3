// 版权所有 2025 SpeechFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 speech 定义宿主平台与语音服务商之间的统一契约层，
包括 TTS（文本转语音）与 STT（语音转文本）的 Provider 接口、
标准化请求/响应模型、错误码体系与 Provider 注册表。

# 概述

宿主平台通过 manifest 包加载服务商描述文件，再经由本包的
Registry 按模型类型（tts / speech2text）解析具体 Provider。
所有服务商适配器（见 providers/ 目录）实现本包接口，
屏蔽不同厂商在鉴权方式、音频格式与响应结构上的差异。

# 核心接口

  - TTSProvider：Synthesize、SynthesizeToFile、ListVoices。
  - STTProvider：Transcribe、TranscribeFile、SupportedFormats。
  - Registry：按模型类型注册与查找 Provider，支持默认 Provider。

# 错误处理

所有契约层与适配器错误统一为 *Error，携带 ErrorCode、HTTP 状态、
可重试标记与 Provider 标识，便于宿主做限流降级与错误归因：

  - SPEECH_UNAUTHORIZED / SPEECH_FORBIDDEN：密钥失效或权限拒绝。
  - SPEECH_RATE_LIMITED：上游限流，可重试。
  - SPEECH_UPSTREAM_ERROR / SPEECH_UPSTREAM_TIMEOUT：上游 5xx 或超时。
  - SPEECH_CREDENTIALS_INVALID：凭据缺失或校验失败，调用前拦截。
  - SPEECH_INVALID_MANIFEST：描述文件不满足 schema 约束。
*/
package speech
