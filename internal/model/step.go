package model

// Step statuses.
const (
	StepOK       = "ok"
	StepError    = "error"
	StepCanceled = "canceled"
)

// StepResult captures the outcome of a processing step.
type StepResult struct {
	Name       string `json:"name"`
	Status     string `json:"status"` // "ok" | "error" | "canceled"
	DurationMS int64  `json:"duration_ms"`
	Detail     string `json:"detail,omitempty"` // error kind, when Status is "error"
}
