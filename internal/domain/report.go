package domain

import (
	"encoding/json"
	"time"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

const (
	PassPrimary  = "primary"
	PassFallback = "fallback"
)

const (
	ErrCodeInputNotFound     = "input_not_found"
	ErrCodeInputMalformed    = "input_malformed"
	ErrCodeOutputUnavailable = "output_unavailable"
	ErrCodeRemoteRejected    = "remote_rejected"
	ErrCodeTransportError    = "transport_error"
	ErrCodeLocalWriteError   = "local_write_error"
	ErrCodeInvalidName       = "invalid_name"
	ErrCodeConfigInvalid     = "config_invalid"
)

// RunReport 是一次 pass 的全部结果（stdout JSON 的稳定结构）。
//
// 约束：Items 严格保持处理顺序，Finalize 不重排。
type RunReport struct {
	RunID  string `json:"run_id"`
	Pass   string `json:"pass"`
	Host   string `json:"host"`
	Input  string `json:"input"`
	OutDir string `json:"out_dir"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`

	// Error 非空表示 pass 在发起任何网络请求之前就被中止（输入缺失/格式错误等）。
	Error *ReportError `json:"error,omitempty"`
}

type ReportSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ItemResult 是单个国家名的下载结果（Success 或 Failure+原因）。
type ItemResult struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
	File string `json:"file"`

	Status     string `json:"status"`
	ErrorCode  string `json:"error_code"`
	ErrorMsg   string `json:"error_msg"`
	HTTPStatus int    `json:"http_status,omitempty"`
}

type ReportError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Finalize 统一时间为 UTC，并由 items 重新计算 summary。
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	s := ReportSummary{Total: len(r.Items)}
	for _, it := range r.Items {
		switch it.Status {
		case StatusSuccess:
			s.Succeeded++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}

// Successes 按处理顺序返回成功的国家名。
func (r *RunReport) Successes() []string {
	return r.names(StatusSuccess)
}

// Failures 按处理顺序返回失败的国家名。
func (r *RunReport) Failures() []string {
	return r.names(StatusFailed)
}

func (r *RunReport) names(status string) []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Status == status {
			out = append(out, it.Name)
		}
	}
	return out
}

// MarshalJSON 保证 items 永远输出为数组（而不是 null）。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	if r.Items == nil {
		r.Items = []ItemResult{}
	}
	return json.Marshal(Alias(r))
}
