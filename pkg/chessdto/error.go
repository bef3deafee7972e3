package chessdto

// Error codes carried by DomainError.
const (
	CodeInvalidFEN     = "invalid_fen"
	CodeInvalidMove    = "invalid_move"
	CodeNoKing         = "no_king"
	CodeUnknownEngine  = "unknown_engine"
	CodeEngineFailure  = "engine_failure"
	CodeEngineTimeout  = "engine_timeout"
	CodeInvalidRequest = "invalid_request"
	CodeInternal       = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "analysis service error"
}
