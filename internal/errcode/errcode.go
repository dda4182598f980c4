package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：业务可恢复/告警类错误（用户可修正后重试，或流程可继续）
// - 5xxx：系统错误（需要中断流程）；5002 为云存储等外部服务调用失败
const (
	OK                   = 0
	ValidationFailed     = 4001
	DeliveryWarning      = 4004
	AuthenticationFailed = 4010
	StepOutOfOrder       = 4009
	NotFound             = 4040
	SystemError          = 5000
	ConfigurationError   = 5001
	UpstreamError        = 5002
)
