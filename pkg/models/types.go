package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// TimeBound 表示一个时间点（秒），可以是有限值，也可以是无上界
//
// 无时间戳的识别结果用无上界的结束时间表示，而不是一个很大的数字，
// 避免下游对时长做算术时得到错误结果。零值为有限的0秒。
type TimeBound struct {
	seconds   float64
	unbounded bool
}

// At 返回有限时间点
func At(seconds float64) TimeBound {
	return TimeBound{seconds: seconds}
}

// Unbounded 返回无上界的时间点
func Unbounded() TimeBound {
	return TimeBound{unbounded: true}
}

// IsUnbounded 是否无上界
func (b TimeBound) IsUnbounded() bool {
	return b.unbounded
}

// Seconds 返回秒数；无上界时 ok 为 false
func (b TimeBound) Seconds() (seconds float64, ok bool) {
	if b.unbounded {
		return 0, false
	}
	return b.seconds, true
}

// SecondsOr 返回秒数，无上界时返回 fallback
func (b TimeBound) SecondsOr(fallback float64) float64 {
	if b.unbounded {
		return fallback
	}
	return b.seconds
}

// NotBefore 判断 b >= t（无上界总是成立）
func (b TimeBound) NotBefore(t float64) bool {
	return b.unbounded || b.seconds >= t
}

func (b TimeBound) String() string {
	if b.unbounded {
		return "unbounded"
	}
	return strconv.FormatFloat(b.seconds, 'f', -1, 64)
}

// MarshalJSON 有限值编码为数字，无上界编码为 null
func (b TimeBound) MarshalJSON() ([]byte, error) {
	if b.unbounded {
		return []byte("null"), nil
	}
	return json.Marshal(b.seconds)
}

// UnmarshalJSON 解析数字或 null
func (b *TimeBound) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = Unbounded()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("无效的时间值 %s: %w", string(data), err)
	}
	*b = At(v)
	return nil
}

// TranscriptSegment 带时间戳的一段转写文本
type TranscriptSegment struct {
	Start float64   `json:"start"` // 开始时间（秒）
	End   TimeBound `json:"end"`   // 结束时间（秒），可能无上界
	Text  string    `json:"text"`
}

// Sentinel 是否为无时间戳时生成的占位段
func (s TranscriptSegment) Sentinel() bool {
	return s.End.IsUnbounded()
}

// TranscriptResult 整个转写结果
type TranscriptResult struct {
	FullText string              `json:"full_text"`
	Segments []TranscriptSegment `json:"segments"`
	Language string              `json:"language"`
	Duration TimeBound           `json:"duration_sec"`
}

// Degraded 是否包含无时间戳的占位段
func (r TranscriptResult) Degraded() bool {
	return r.Duration.IsUnbounded()
}

// DetectedSlide 检测到的一张幻灯片
type DetectedSlide struct {
	SlideNumber int     `json:"slide_number"`
	ImagePath   string  `json:"image_path,omitempty"`
	Timestamp   float64 `json:"timestamp,omitempty"` // 在视频中出现的时间（秒）
}

// OCRResult 单张幻灯片的识别结果
type OCRResult struct {
	SlideNumber        int      `json:"slide_number"`
	Title              string   `json:"title,omitempty"`
	RawText            string   `json:"raw_text"`            // 模型原始输出
	StructuredMarkdown string   `json:"structured_markdown"` // 过滤后的markdown
	LatexExpressions   []string `json:"latex_expressions"`   // 先块公式后行内公式
}
