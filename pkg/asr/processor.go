package asr

import (
	"github.com/ccp-p/lecture-processor/pkg/export"
	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// ASRProcessor 把转写结果导出为配置中要求的各种格式
type ASRProcessor struct {
	Config       *models.Config
	SRTExporter  *export.SRTExporter
	JSONExporter *export.JSONExporter
	MDExporter   *export.MarkdownExporter
}

// NewASRProcessor 创建新的ASR处理器
func NewASRProcessor(config *models.Config) *ASRProcessor {
	return &ASRProcessor{
		Config:       config,
		SRTExporter:  export.NewSRTExporter(config.OutputFolder),
		JSONExporter: export.NewJSONExporter(config.OutputFolder),
		MDExporter:   export.NewMarkdownExporter(config.OutputFolder, true),
	}
}

// ProcessResults 导出转写结果，返回 格式 -> 文件路径
//
// JSON导出失败视为错误；SRT和Markdown失败只记录警告。
func (p *ASRProcessor) ProcessResults(result models.TranscriptResult, audioPath string) (map[string]string, error) {
	outputFiles := make(map[string]string)

	if p.Config.ExportJSON {
		jsonPath, err := p.JSONExporter.ExportTranscript(result, audioPath)
		if err != nil {
			return nil, err
		}
		outputFiles["json"] = jsonPath
	}

	if p.Config.ExportSRT && len(result.Segments) > 0 {
		srtPath, err := p.SRTExporter.ExportSRT(result.Segments, audioPath)
		if err != nil {
			utils.Warn("导出SRT字幕失败: %v", err)
		} else {
			outputFiles["srt"] = srtPath
		}
	}

	if p.Config.ExportMD && result.FullText != "" {
		mdPath, err := p.MDExporter.ExportMarkdown(audioPath, "", &result, nil)
		if err != nil {
			utils.Warn("导出Markdown失败: %v", err)
		} else {
			outputFiles["md"] = mdPath
		}
	}

	return outputFiles, nil
}
