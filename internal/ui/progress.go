package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// ProgressBar 终端进度条，可被多个goroutine同时更新
type ProgressBar struct {
	Total     int
	Current   int
	Prefix    string
	Suffix    string
	Width     int
	FillChar  string
	EmptyChar string
	StartTime time.Time
	Out       io.Writer

	mu sync.Mutex
}

// NewProgressBar 创建新的进度条
func NewProgressBar(total int, prefix string, suffix string) *ProgressBar {
	return &ProgressBar{
		Total:     total,
		Prefix:    prefix,
		Suffix:    suffix,
		Width:     30,
		FillChar:  "█",
		EmptyChar: "░",
		StartTime: time.Now(),
		Out:       os.Stdout,
	}
}

// Update 更新进度
func (p *ProgressBar) Update(current int, suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(current, suffix)
}

func (p *ProgressBar) update(current int, suffix string) {
	if current < 0 {
		return
	}
	if current > p.Total {
		current = p.Total
	}

	p.Current = current
	if suffix != "" {
		p.Suffix = suffix
	}

	fmt.Fprint(p.Out, color.CyanString("\r"+p.line()))
}

// Increment 增加进度
func (p *ProgressBar) Increment(suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(p.Current+1, suffix)
}

// Complete 完成进度条
func (p *ProgressBar) Complete(suffix string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.update(p.Total, suffix)
	fmt.Fprintln(p.Out)
}

func (p *ProgressBar) percent() float64 {
	if p.Total <= 0 {
		return 1
	}
	return float64(p.Current) / float64(p.Total)
}

// line 构建不带颜色的进度行
func (p *ProgressBar) line() string {
	percent := p.percent()
	filled := int(percent * float64(p.Width))
	if filled > p.Width {
		filled = p.Width
	}
	bar := strings.Repeat(p.FillChar, filled) + strings.Repeat(p.EmptyChar, p.Width-filled)

	elapsed := time.Since(p.StartTime)
	var remaining time.Duration
	if p.Current > 0 && percent < 1 {
		remaining = time.Duration(float64(elapsed) / percent * (1 - percent))
	}

	return fmt.Sprintf("%s [%s] %3.0f%% | %d/%d | %s<%s | %s",
		p.Prefix, bar, percent*100, p.Current, p.Total,
		formatDuration(elapsed), formatDuration(remaining), p.Suffix)
}

// String 返回进度条的字符串表示
func (p *ProgressBar) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

// 格式化持续时间为 MM:SS 格式
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
