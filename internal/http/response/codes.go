package response

// 业务状态码，取值与 HTTP 语义对应，但响应本身总是 200
const (
	CodeOK              = 0
	CodeBadRequest      = 400 // 参数或业务校验失败
	CodeUnauthorized    = 401
	CodeForbidden       = 403
	CodeNotFound        = 404
	CodeConflict        = 409 // 状态冲突，如重复提现审批
	CodeTooManyRequests = 429
	CodeInternal        = 500
)
