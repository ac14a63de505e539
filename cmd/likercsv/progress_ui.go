package main

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/likercsv/internal/app/run"
	"github.com/John-Robertt/likercsv/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

const (
	barWidth       = 50
	barFilled      = "█"
	barEmpty       = "░"
	notFoundMarker = "❌ Not found"

	// 回到行首并清除整行。
	clearLine = "\r\x1b[2K"
)

// progressUI 把 run 事件渲染成终端进度。
//
// - inPlace=true：同一行原地刷新（终端）
// - inPlace=false：每条记录一行，不输出任何光标控制符（日志文件/管道）
//
// 颜色由绑定到 w 的 lipgloss renderer 决定：w 不是终端时自动降级为纯文本。
type progressUI struct {
	w       io.Writer
	inPlace bool

	okStyle   lipgloss.Style
	missStyle lipgloss.Style
	doneStyle lipgloss.Style
	dimStyle  lipgloss.Style

	mu        sync.Mutex
	startedAt time.Time
	total     int
	done      int
	// 原地刷新时当前行未换行。
	lineOpen bool
}

func newProgressUI(w io.Writer, inPlace bool) *progressUI {
	r := lipgloss.NewRenderer(w)
	return &progressUI{
		w:         w,
		inPlace:   inPlace,
		okStyle:   r.NewStyle().Foreground(lipgloss.Color("2")),
		missStyle: r.NewStyle().Foreground(lipgloss.Color("1")),
		doneStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		dimStyle:  r.NewStyle().Faint(true),
	}
}

func (p *progressUI) OnStart(input, output string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = time.Now()
	fmt.Fprintf(p.w, "📁 Input file: %s\n", input)
	fmt.Fprintf(p.w, "📁 Output file: %s\n", output)
}

func (p *progressUI) OnLoaded(total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	fmt.Fprintf(p.w, "📊 Processing %d records...\n\n", total)
}

func (p *progressUI) OnRecordDone(idx, total int, row domain.OutputRow) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = idx
	p.total = total

	target := p.okStyle.Render(row.LikerID)
	if !row.Matched() {
		target = p.missStyle.Render(notFoundMarker)
	}
	line := fmt.Sprintf("%s | %s -> %s", formatProgress(idx, total), row.Email, target)

	if p.inPlace {
		fmt.Fprint(p.w, clearLine+line)
		p.lineOpen = true
		return
	}
	fmt.Fprintln(p.w, line)
}

func (p *progressUI) OnFinish(rr domain.RunReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLineLocked()
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.doneStyle.Render("✅ Done! Output saved to "+rr.OutputPath))
	fmt.Fprintln(p.w, p.dimStyle.Render(fmt.Sprintf("   total=%d matched=%d unmatched=%d elapsed=%s",
		rr.Summary.Total, rr.Summary.Matched, rr.Summary.Unmatched, formatElapsed(time.Since(p.startedAt)),
	)))
}

// Abort 在失败路径上收尾：把未换行的进度行结束掉，避免日志接在进度条后面。
func (p *progressUI) Abort() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLineLocked()
}

func (p *progressUI) closeLineLocked() {
	if p.lineOpen {
		fmt.Fprintln(p.w)
		p.lineOpen = false
	}
}

// formatProgress 返回 "[<bar>] P% (i/N)"。
func formatProgress(idx, total int) string {
	pct := percent(idx, total)
	return fmt.Sprintf("[%s] %d%% (%d/%d)", progressBar(pct), pct, idx, total)
}

func percent(idx, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(idx) / float64(total) * 100))
}

// progressBar 每 2% 一格，固定 50 格宽。
func progressBar(pct int) string {
	filled := pct / 2
	if filled < 0 {
		filled = 0
	}
	if filled > barWidth {
		filled = barWidth
	}
	return strings.Repeat(barFilled, filled) + strings.Repeat(barEmpty, barWidth-filled)
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
