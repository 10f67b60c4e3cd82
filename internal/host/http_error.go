package host

import "fmt"

// HTTPStatusError 表示站点返回了非 2xx 的 HTTP 状态码（remote rejected）。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}
