package audio

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// BatchResult 存储批处理结果
type BatchResult struct {
	FilePath    string
	Success     bool
	OutputPath  string
	Converted   bool
	Error       error
	ProcessTime time.Duration
}

// BatchProgressCallback 批处理进度回调
type BatchProgressCallback func(current, total int, filename string, result *BatchResult)

// BatchProcessor 并发准备多个媒体文件的音频
type BatchProcessor struct {
	MaxConcurrency   int
	Converter        *Converter
	ProgressCallback BatchProgressCallback
}

// NewBatchProcessor 创建批处理器
func NewBatchProcessor(converter *Converter, maxConcurrency int, callback BatchProgressCallback) *BatchProcessor {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &BatchProcessor{
		MaxConcurrency:   maxConcurrency,
		Converter:        converter,
		ProgressCallback: callback,
	}
}

// PrepareFiles 并发转换文件，结果顺序与输入一致。单个文件失败不影响其他文件。
func (p *BatchProcessor) PrepareFiles(ctx context.Context, files []string) []BatchResult {
	results := make([]BatchResult, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.MaxConcurrency) // 信号量限制并发

	for i, filePath := range files {
		wg.Add(1)
		sem <- struct{}{}

		go func(index int, path string) {
			defer wg.Done()
			defer func() { <-sem }()

			filename := filepath.Base(path)
			startTime := time.Now()

			if p.ProgressCallback != nil {
				p.ProgressCallback(index+1, len(files), filename, nil)
			}

			result := BatchResult{FilePath: path}
			if err := ctx.Err(); err != nil {
				result.Error = err
			} else {
				result.OutputPath, result.Converted, result.Error = p.Converter.PrepareAudio(ctx, path)
			}
			result.Success = result.Error == nil
			result.ProcessTime = time.Since(startTime)

			if !result.Success {
				utils.Error("准备音频失败 %s: %v", filename, result.Error)
			}

			if p.ProgressCallback != nil {
				p.ProgressCallback(index+1, len(files), filename, &result)
			}

			results[index] = result
		}(i, filePath)
	}

	wg.Wait()
	return results
}
