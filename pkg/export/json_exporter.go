package export

import (
	"fmt"
	"path/filepath"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// JSONExporter 负责将转写和OCR结果导出为JSON文件
type JSONExporter struct {
	OutputFolder string
}

// outputName 导出文件的前缀：媒体文件名，保留扩展名
//
// talk.mp3 和 talk.mp4 分别导出为 talk.mp3.* 和 talk.mp4.*
func outputName(mediaPath string) string {
	return filepath.Base(mediaPath)
}

// NewJSONExporter 创建一个新的JSON导出器
func NewJSONExporter(outputFolder string) *JSONExporter {
	return &JSONExporter{
		OutputFolder: outputFolder,
	}
}

// ExportTranscript 导出转写结果，文件名为 <媒体文件名>.transcript.json
func (e *JSONExporter) ExportTranscript(result models.TranscriptResult, filename string) (string, error) {
	outputFile := filepath.Join(e.OutputFolder, outputName(filename)+".transcript.json")
	if err := utils.SaveJSONFile(outputFile, result); err != nil {
		return "", fmt.Errorf("写入JSON文件失败: %w", err)
	}

	utils.Info("已导出JSON文件: %s", outputFile)
	return outputFile, nil
}

// ExportSlides 导出幻灯片OCR结果，文件名为 <媒体文件名>.slides.json
func (e *JSONExporter) ExportSlides(results []models.OCRResult, name string) (string, error) {
	if results == nil {
		results = []models.OCRResult{}
	}

	outputFile := filepath.Join(e.OutputFolder, outputName(name)+".slides.json")
	if err := utils.SaveJSONFile(outputFile, results); err != nil {
		return "", fmt.Errorf("写入JSON文件失败: %w", err)
	}

	utils.Info("已导出JSON文件: %s", outputFile)
	return outputFile, nil
}
