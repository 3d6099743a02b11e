package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

// StillProcessingResponse maps retryable/timeout outcomes to a non-error
// answer: the operation is in flight and will be reconciled later.
type StillProcessingResponse struct {
	OK             bool   `json:"ok"`
	Status         string `json:"status"`
	LifecycleState string `json:"lifecycle_state,omitempty"`
	NeedsPoll      bool   `json:"needs_poll"`
}
