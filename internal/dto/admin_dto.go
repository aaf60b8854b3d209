package dto

import "time"

// StudySummaryResponse aggregates enrolment and answer statistics.
type StudySummaryResponse struct {
	Participants int64             `json:"participants"`
	ByGroup      map[string]int64  `json:"by_group"`
	Completed    int64             `json:"completed"`
	Responses    int64             `json:"responses"`
	Correct      int64             `json:"correct"`
	Accuracy     float64           `json:"accuracy"`
	MeanRTMs     *float64          `json:"mean_rt_ms"`
	Categories   []CategorySummary `json:"categories"`
	GeneratedAt  time.Time         `json:"generated_at"`
	CacheHit     bool              `json:"cache_hit"`
}

// CategorySummary aggregates answers for one question category.
type CategorySummary struct {
	Category  string   `json:"category"`
	Responses int64    `json:"responses"`
	Correct   int64    `json:"correct"`
	Accuracy  float64  `json:"accuracy"`
	MeanRTMs  *float64 `json:"mean_rt_ms"`
}

// ResponseExportFilter narrows the CSV export.
type ResponseExportFilter struct {
	Group         string `query:"group" validate:"omitempty,oneof=A B"`
	ParticipantID *uint  `query:"participant_id" validate:"omitempty,gt=0"`
}
