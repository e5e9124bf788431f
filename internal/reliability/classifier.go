package reliability

// ClassifyHTTPStatus maps a speech-endpoint HTTP status to a stable failure
// code used in logs and metrics labels.
func ClassifyHTTPStatus(code int) string {
	switch {
	case code == 429:
		return "rate_limited"
	case code >= 500:
		return "upstream_error"
	case code >= 400:
		return "rejected"
	default:
		return "ok"
	}
}

// IsTransientHTTPStatus classifies statuses attributable to the transport or
// upstream load rather than the request itself.
func IsTransientHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsTransientStreamMessageType classifies transient upstream realtime errors
// reported in websocket error payloads.
func IsTransientStreamMessageType(messageType string) bool {
	switch messageType {
	case "rate_limited", "resource_exhausted", "queue_overflow", "error":
		return true
	default:
		return false
	}
}
