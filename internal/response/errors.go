package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Query ─────────────────────────────────────────────────────────
	// ErrIntentIncomplete means a details query is missing one of
	// subject, course number, or instructor — the client should ask the
	// user to clarify rather than retry.
	ErrIntentIncomplete ErrCode = "INTENT_INCOMPLETE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrStoreUnavailable ErrCode = "STORE_UNAVAILABLE"
	ErrInternal         ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrIntentIncomplete:
		return "A details query needs a subject, a course number, and an instructor name (e.g. \"details cs 580 yu\")."
	case ErrNotFound:
		return "Resource not found."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."
	case ErrStoreUnavailable:
		return "The grade warehouse is currently unavailable."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
