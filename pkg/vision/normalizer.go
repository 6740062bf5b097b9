package vision

import (
	"strings"
	"unicode/utf8"

	"github.com/ccp-p/lecture-processor/pkg/models"
)

// Options 幻觉过滤参数，零值字段使用默认值
type Options struct {
	// Marker 被视为可疑的嵌套环境起始标记
	Marker string
	// RepeatThreshold 单行中标记出现次数超过该值时丢弃该行
	RepeatThreshold int
	// LineLengthThreshold 行长度（字符数）超过该值且包含标记时丢弃该行
	LineLengthThreshold int
}

// DefaultOptions 返回默认过滤参数
func DefaultOptions() Options {
	return Options{
		Marker:              models.DefaultHallucinationMarker,
		RepeatThreshold:     models.DefaultRepeatThreshold,
		LineLengthThreshold: models.DefaultLineLengthThreshold,
	}
}

// OptionsFromConfig 从应用配置读取过滤参数
func OptionsFromConfig(config *models.Config) Options {
	return Options{
		Marker:              config.HallucinationMarker,
		RepeatThreshold:     config.HallucinationRepeatThreshold,
		LineLengthThreshold: config.HallucinationLineThreshold,
	}
}

// Normalizer 清理视觉模型输出的markdown并提取公式
//
// 过滤按行进行，不解析括号结构：任意深度的嵌套环境无法安全解析，
// 偶尔误删一行很长的合法公式是可以接受的。Normalizer 无状态，可并发使用。
type Normalizer struct {
	opts Options
}

// NewNormalizer 创建Normalizer
func NewNormalizer(opts Options) *Normalizer {
	def := DefaultOptions()
	if opts.Marker == "" {
		opts.Marker = def.Marker
	}
	if opts.RepeatThreshold <= 0 {
		opts.RepeatThreshold = def.RepeatThreshold
	}
	if opts.LineLengthThreshold <= 0 {
		opts.LineLengthThreshold = def.LineLengthThreshold
	}
	return &Normalizer{opts: opts}
}

// Options 返回生效的过滤参数
func (n *Normalizer) Options() Options {
	return n.opts
}

// Clean 删除疑似幻觉的行，其余行保持原顺序。从不返回错误。
func (n *Normalizer) Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if n.Hallucinated(line) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// Hallucinated 判断单行是否应被丢弃，两条规则独立生效
func (n *Normalizer) Hallucinated(line string) bool {
	count := strings.Count(line, n.opts.Marker)
	if count > n.opts.RepeatThreshold {
		return true
	}
	return count > 0 && utf8.RuneCountInString(line) > n.opts.LineLengthThreshold
}

// Normalize 过滤原始输出并提取公式，生成OCR结果
func (n *Normalizer) Normalize(slide models.DetectedSlide, raw string) models.OCRResult {
	cleaned := n.Clean(raw)

	return models.OCRResult{
		SlideNumber:        slide.SlideNumber,
		Title:              SlideTitle(cleaned),
		RawText:            raw,
		StructuredMarkdown: cleaned,
		LatexExpressions:   ExtractLatex(cleaned),
	}
}
