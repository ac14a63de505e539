package domain

import "time"

// RunReport 是一次 run 的对外摘要（非 TTY 时以 JSON 输出到 stdout）。
type RunReport struct {
	InputPath  string `json:"input_path"`
	OutputPath string `json:"output_path"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Rows    []OutputRow   `json:"-"`
}

type ReportSummary struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 rows 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	var s ReportSummary
	for _, row := range r.Rows {
		s.Total++
		if row.Matched() {
			s.Matched++
		} else {
			s.Unmatched++
		}
	}
	r.Summary = s
}
