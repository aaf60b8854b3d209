package dto

import "encoding/json"

// NextQuestionResponse is served while questions remain.
type NextQuestionResponse struct {
	Done        bool      `json:"done"`
	QIndex      int       `json:"q_index"`
	Total       int       `json:"total"`
	Category    string    `json:"category"`
	NumbersText string    `json:"numbers_text"`
	OpsText     string    `json:"ops_text"`
	Numbers     []float64 `json:"numbers"`
	Ops         []string  `json:"ops"`
	Target      float64   `json:"target"`
}

// TaskDoneResponse is served once the question sequence is exhausted.
type TaskDoneResponse struct {
	Done bool `json:"done"`
}

// SubmitRequest is an answer posted by the task page. Every field is kept
// raw so malformed values can be coerced leniently instead of rejecting the
// whole payload.
type SubmitRequest struct {
	QIndex json.RawMessage `json:"q_index"`
	Chosen json.RawMessage `json:"chosen"`
	RTMs   json.RawMessage `json:"rt_ms"`
	Expr   json.RawMessage `json:"expr"`
	Result json.RawMessage `json:"result"`
}

// SubmitAck acknowledges a stored answer.
type SubmitAck struct {
	OK bool `json:"ok"`
}
