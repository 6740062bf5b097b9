package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// MarkdownExporter 把转写和幻灯片内容导出为一份Markdown笔记
type MarkdownExporter struct {
	OutputFolder      string
	IncludeTimestamps bool
}

// NewMarkdownExporter 创建Markdown导出器
func NewMarkdownExporter(outputFolder string, includeTimestamps bool) *MarkdownExporter {
	return &MarkdownExporter{
		OutputFolder:      outputFolder,
		IncludeTimestamps: includeTimestamps,
	}
}

// GenerateMarkdown 生成笔记内容，transcript 或 slides 可以为空
func (e *MarkdownExporter) GenerateMarkdown(title string, transcript *models.TranscriptResult, slides []models.OCRResult) string {
	var b strings.Builder

	b.WriteString("# " + title + "\n\n")

	if len(slides) > 0 {
		b.WriteString("## Slides\n\n")
		for _, slide := range slides {
			heading := fmt.Sprintf("Slide %d", slide.SlideNumber)
			if slide.Title != "" {
				heading += " - " + slide.Title
			}
			b.WriteString("### " + heading + "\n\n")
			b.WriteString(strings.TrimSpace(slide.StructuredMarkdown))
			b.WriteString("\n\n")
		}
	}

	if transcript != nil && transcript.FullText != "" {
		b.WriteString("## Transcript\n\n")
		for _, seg := range transcript.Segments {
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			if e.IncludeTimestamps {
				b.WriteString(fmt.Sprintf("[%s-%s] ", utils.FormatTime(seg.Start), formatEnd(seg.End)))
			}
			b.WriteString(text + "\n\n")
		}
		if len(transcript.Segments) == 0 {
			b.WriteString(transcript.FullText + "\n\n")
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// ExportMarkdown 写入 <媒体文件名><suffix>.md，标题为去掉扩展名的文件名
func (e *MarkdownExporter) ExportMarkdown(mediaPath, suffix string, transcript *models.TranscriptResult, slides []models.OCRResult) (string, error) {
	if err := os.MkdirAll(e.OutputFolder, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	outputFile := filepath.Join(e.OutputFolder, outputName(mediaPath)+suffix+".md")
	content := e.GenerateMarkdown(utils.BaseName(mediaPath), transcript, slides)
	if err := os.WriteFile(outputFile, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("写入Markdown文件失败: %w", err)
	}

	utils.Info("已导出Markdown文件: %s", outputFile)
	return outputFile, nil
}

func formatEnd(end models.TimeBound) string {
	if sec, ok := end.Seconds(); ok {
		return utils.FormatTime(sec)
	}
	return "…"
}
