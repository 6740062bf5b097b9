package vision

import (
	"regexp"

	"github.com/dlclark/regexp2"

	"github.com/ccp-p/lecture-processor/pkg/utils"
)

var (
	// $$...$$，可跨行，不支持嵌套
	blockLatexRe = regexp.MustCompile(`(?s)\$\$(.*?)\$\$`)

	// $...$，两侧的 $ 都不能紧挨着另一个 $，避免把 $$ 拆成两个行内分隔符。
	// RE2 不支持环视，这里用 regexp2。
	inlineLatexRe = regexp2.MustCompile(`(?<!\$)\$(?!\$)(.*?)(?<!\$)\$(?!\$)`, regexp2.None)
)

// ExtractBlockLatex 按出现顺序返回所有块公式的内容（不含分隔符）
func ExtractBlockLatex(text string) []string {
	matches := blockLatexRe.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ExtractInlineLatex 按出现顺序返回所有行内公式的内容（不含分隔符）
//
// 行内匹配在完整文本上进行，不会屏蔽块公式区域，
// 块公式内部的 $...$ 也会再次被匹配。
func ExtractInlineLatex(text string) []string {
	var out []string

	m, err := inlineLatexRe.FindStringMatch(text)
	for m != nil && err == nil {
		out = append(out, m.GroupByNumber(1).String())
		m, err = inlineLatexRe.FindNextMatch(m)
	}
	if err != nil {
		utils.Warn("行内公式匹配中断: %v", err)
	}

	if out == nil {
		out = []string{}
	}
	return out
}

// ExtractLatex 先返回全部块公式，再返回全部行内公式，不按位置合并
func ExtractLatex(text string) []string {
	blocks := ExtractBlockLatex(text)
	inlines := ExtractInlineLatex(text)

	out := make([]string, 0, len(blocks)+len(inlines))
	out = append(out, blocks...)
	return append(out, inlines...)
}
