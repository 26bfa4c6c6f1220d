package speechtotext

// ErrorCode classifies recognition failures.
type ErrorCode string

const (
	ErrorNoSpeech     ErrorCode = "no-speech"
	ErrorNetwork      ErrorCode = "network"
	ErrorNotAllowed   ErrorCode = "not-allowed"
	ErrorAudioCapture ErrorCode = "audio-capture"
	ErrorAborted      ErrorCode = "aborted"
	ErrorUnavailable  ErrorCode = "service-not-allowed"
)

// IsTransient reports whether a retry may succeed.
func (c ErrorCode) IsTransient() bool {
	return c == ErrorNoSpeech || c == ErrorNetwork
}

// IsBenign reports whether the error is a consequence of the caller's own
// abort and should be ignored.
func (c ErrorCode) IsBenign() bool {
	return c == ErrorAborted
}

const (
	AdvisoryRetrying    = "语音服务网络异常，正在重试…"
	AdvisoryNotAllowed  = "请允许麦克风权限以使用语音识别"
	AdvisoryNoDevice    = "未检测到麦克风设备或被占用"
	AdvisoryUnavailable = "语音识别不可用或浏览器扩展干扰，请稍后重试"
)

// Advisory returns the user-facing message for the error.
func (c ErrorCode) Advisory() string {
	switch {
	case c.IsBenign():
		return ""
	case c.IsTransient():
		return AdvisoryRetrying
	case c == ErrorNotAllowed:
		return AdvisoryNotAllowed
	case c == ErrorAudioCapture:
		return AdvisoryNoDevice
	default:
		return AdvisoryUnavailable
	}
}
