package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlideTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		want     string
	}{
		{"atx", "# 극한의 정의\n\n본문", "극한의 정의"},
		{"second level first", "본문\n\n## 정리 1\n\n# 나중", "정리 1"},
		{"fenced", "```markdown\n# 미분\n\n$$ f'(x) $$\n```", "미분"},
		{"setext", "도함수\n===\n", "도함수"},
		{"emphasis and code", "# **정리** 2: `lim`", "정리 2: lim"},
		{"link", "## [연쇄 법칙](https://example.com) 요약", "연쇄 법칙 요약"},
		{"none", "제목 없는 본문", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlideTitle(tt.markdown))
		})
	}
}

func TestStripMarkdownFence(t *testing.T) {
	assert.Equal(t, "# a", stripMarkdownFence("```md\n# a\n```"))
	assert.Equal(t, "# a", stripMarkdownFence("  # a  "))
}
