package vision

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var fencedMarkdownRe = regexp.MustCompile("(?s)^```(?:markdown|md)?\\s*(.*?)\\s*```$")

// stripMarkdownFence 去掉模型有时包在整段输出外面的 ```markdown 代码块
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if m := fencedMarkdownRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// SlideTitle 返回markdown中第一个标题的文本，没有标题时返回空字符串
func SlideTitle(markdown string) string {
	src := []byte(stripMarkdownFence(markdown))
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			title = strings.TrimSpace(inlineText(h, src))
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})

	return title
}

// inlineText 拼接节点下的行内文本，强调、链接、代码等嵌套节点递归展开
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			buf.Write(v.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
