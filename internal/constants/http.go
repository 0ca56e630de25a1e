package constants

// HTTP Header Names
const (
	HeaderContentType     = "Content-Type"
	HeaderAuthorization   = "Authorization"
	HeaderUserAgent       = "User-Agent"
	HeaderWWWAuthenticate = "WWW-Authenticate"
	HeaderXRequestID      = "X-Request-ID"
	HeaderXTraceID        = "X-Trace-ID"
	HeaderXCorrelationID  = "X-Correlation-ID"
	HeaderXForwardedFor   = "X-Forwarded-For"
	HeaderXRealIP         = "X-Real-IP"
	HeaderCFConnectingIP  = "CF-Connecting-IP"
	HeaderXCache          = "X-Cache"
)

// HTTP Content Type
const (
	ContentTypeJSON = "application/json"
)

// Common HTTP Error Messages
const (
	MsgUnauthorized    = "Unauthorized access"
	MsgInternalError   = "Internal server error"
	MsgTooManyRequests = "Too many requests"
)

// HTTP Success Messages
const (
	MsgCreated = "Resource created successfully"
	MsgUpdated = "Resource updated successfully"
	MsgDeleted = "Resource deleted successfully"
	MsgSuccess = "Operation completed successfully"
)
