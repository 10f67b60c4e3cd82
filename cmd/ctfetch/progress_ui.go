package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/ctfetch/internal/app/pass"
	"github.com/John-Robertt/ctfetch/internal/config"
	"github.com/John-Robertt/ctfetch/internal/domain"
)

var _ pass.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的逐条进度输出。
// 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约。
type progressUI struct {
	w   io.Writer
	eff config.EffectiveConfig

	okStyle   lipgloss.Style
	failStyle lipgloss.Style
	warnStyle lipgloss.Style
	dimStyle  lipgloss.Style

	mu        sync.Mutex
	startedAt time.Time
	ok        int
	fail      int
}

func newProgressUI(w io.Writer, eff config.EffectiveConfig) *progressUI {
	r := lipgloss.NewRenderer(w)
	return &progressUI{
		w:         w,
		eff:       eff,
		okStyle:   r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		failStyle: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warnStyle: r.NewStyle().Foreground(lipgloss.Color("3")),
		dimStyle:  r.NewStyle().Faint(true),
	}
}

func (p *progressUI) OnStart(rr *domain.RunReport, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = time.Now()
	fmt.Fprintf(p.w, "[%s] ctfetch %s (run %s)\n", p.startedAt.Format("15:04:05"), rr.Pass, shortID(rr.RunID))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  host: %s\n", rr.Host)
	if strings.TrimSpace(p.eff.BaseURL) != "" {
		fmt.Fprintf(p.w, "  base_url: %s\n", truncate(p.eff.BaseURL, 120))
	}
	fmt.Fprintf(p.w, "  input: %s (%d 条)\n", rr.Input, total)
	fmt.Fprintf(p.w, "  out: %s\n", rr.OutDir)
	fmt.Fprintf(p.w, "  timeout: %s\n", p.eff.Timeout)
	fmt.Fprintf(p.w, "  rate: %s\n", formatRate(p.eff.RatePerSecond))
	if p.eff.InsecureSkipVerify {
		fmt.Fprintf(p.w, "  tls_verify: %s\n", p.warnStyle.Render("off（--insecure-skip-verify，仅限测试环境）"))
	} else {
		fmt.Fprintln(p.w, "  tls_verify: on")
	}
	fmt.Fprintln(p.w)
}

func (p *progressUI) OnItemDone(idx, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if res.Status == domain.StatusSuccess {
		p.ok++
	} else {
		p.fail++
	}
	fmt.Fprintln(p.w, p.formatItemLine(idx, total, res, dur))

	if idx >= total {
		fmt.Fprintf(p.w, "\n%s\n", p.dimStyle.Render(fmt.Sprintf("进度: done=%d/%d ok=%d fail=%d elapsed=%s",
			idx, total, p.ok, p.fail, formatElapsed(time.Since(p.startedAt)))))
	}
}

func (p *progressUI) formatItemLine(idx, total int, res domain.ItemResult, dur time.Duration) string {
	name := res.Name
	if name == "" {
		name = "<empty>"
	}
	if res.Status == domain.StatusSuccess {
		return fmt.Sprintf("[%d/%d] %s %s %s (%s)",
			idx, total, name, p.okStyle.Render("OK"), res.File, formatShortDuration(dur))
	}
	return fmt.Sprintf("[%d/%d] %s %s %s: %s (%s)",
		idx, total, name, p.failStyle.Render("FAIL"), res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur))
}

func formatRate(r float64) string {
	if r <= 0 {
		return "off"
	}
	return fmt.Sprintf("%g req/s", r)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate 按 rune 截断（max 为字符数），不会切开多字节字符。
func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
