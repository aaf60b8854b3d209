package questionbank

// Question is one equation-builder stimulus. It is derived from the bank on
// demand and never persisted.
type Question struct {
	Category    string    `json:"category"`
	Numbers     []float64 `json:"numbers"`
	Ops         []string  `json:"ops"`
	Target      float64   `json:"target"`
	Answer      string    `json:"answer"`
	NumbersText string    `json:"numbers_text"`
	OpsText     string    `json:"ops_text"`
}

// SkippedRow records a bank row that was left out of the question sequence.
type SkippedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// LoadResult is the outcome of parsing a question bank.
type LoadResult struct {
	Questions []Question
	Skipped   []SkippedRow
}
