package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// MinCueSeconds 结束时间无效或无上界时字幕条目的显示时长
const MinCueSeconds = 5.0

// SRTExporter 负责将转写结果导出为SRT字幕文件
type SRTExporter struct {
	OutputFolder string
}

// NewSRTExporter 创建一个新的SRT导出器
func NewSRTExporter(outputFolder string) *SRTExporter {
	return &SRTExporter{
		OutputFolder: outputFolder,
	}
}

// GenerateSRTContent 生成SRT格式内容，空文本分段会被跳过，序号连续
func (e *SRTExporter) GenerateSRTContent(segments []models.TranscriptSegment) string {
	var srtLines []string
	index := 0

	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		index++

		startTime := segment.Start
		endTime := segment.End.SecondsOr(startTime)
		if endTime <= startTime {
			endTime = startTime + MinCueSeconds
		}

		srtLines = append(srtLines,
			fmt.Sprintf("%d", index),
			fmt.Sprintf("%s --> %s", utils.FormatSRTTime(startTime), utils.FormatSRTTime(endTime)),
			text,
			"", // 空行分隔
		)
	}

	return strings.Join(srtLines, "\n")
}

// ExportSRT 导出SRT格式字幕文件
func (e *SRTExporter) ExportSRT(segments []models.TranscriptSegment, filename string) (string, error) {
	if err := os.MkdirAll(e.OutputFolder, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	outputFile := filepath.Join(e.OutputFolder, outputName(filename)+".srt")
	if err := os.WriteFile(outputFile, []byte(e.GenerateSRTContent(segments)), 0644); err != nil {
		return "", fmt.Errorf("写入SRT文件失败: %w", err)
	}

	utils.Info("已导出SRT字幕: %s", outputFile)
	return outputFile, nil
}
