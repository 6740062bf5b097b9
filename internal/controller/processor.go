package controller

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/ccp-p/lecture-processor/internal/ui"
	"github.com/ccp-p/lecture-processor/internal/watcher"
	"github.com/ccp-p/lecture-processor/pkg/asr"
	"github.com/ccp-p/lecture-processor/pkg/audio"
	"github.com/ccp-p/lecture-processor/pkg/export"
	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/scanner"
	"github.com/ccp-p/lecture-processor/pkg/storage"
	"github.com/ccp-p/lecture-processor/pkg/utils"
	"github.com/ccp-p/lecture-processor/pkg/vision"
)

// ProcessorController 协调转写、幻灯片识别、导出和存储
type ProcessorController struct {
	Config *models.Config

	Converter      *audio.Converter
	BatchProcessor *audio.BatchProcessor
	Transcriber    asr.Transcriber
	ASRProcessor   *asr.ASRProcessor
	OCR            *vision.OCRProcessor // 为nil时跳过幻灯片
	Scanner        *scanner.MediaScanner
	Storage        *storage.LocalClient
	JSONExporter   *export.JSONExporter
	MDExporter     *export.MarkdownExporter

	// Retrier 识别和视觉客户端共用，同时记录单个文件的处理失败
	Retrier *utils.ErrorHandler

	Stats struct {
		StartTime       time.Time
		TotalFiles      int
		SuccessfulFiles int
		FailedFiles     int
	}
	processed map[string]bool // 本次运行中已成功处理的文件
	mu        sync.Mutex
}

// NotesSuffix 转写加幻灯片的合并笔记：<媒体文件名>.notes.md
const NotesSuffix = ".notes"

// NewProcessorController 根据配置创建所有组件
func NewProcessorController(config *models.Config) (*ProcessorController, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := storage.NewLocalClient(config.StoragePath, config.StorageBaseURL)
	if err != nil {
		return nil, err
	}

	pc := &ProcessorController{
		Config:       config,
		ASRProcessor: asr.NewASRProcessor(config),
		Scanner:      scanner.NewMediaScanner(),
		Storage:      store,
		JSONExporter: export.NewJSONExporter(config.OutputFolder),
		MDExporter:   export.NewMarkdownExporter(config.OutputFolder, true),
		Retrier:      newRetrier(config),
		processed:    make(map[string]bool),
	}

	pc.Converter = audio.NewConverter(config, nil)
	pc.BatchProcessor = audio.NewBatchProcessor(pc.Converter, config.MaxWorkers, pc.batchProgressCallback)

	var client asr.RecognitionClient
	if config.RecognitionEnabled() {
		c := asr.NewHTTPRecognitionClient(config.RecognitionURL, config.RecognitionAPIKey)
		c.Retrier = pc.Retrier
		client = c
	}
	pc.Transcriber = asr.NewTranscriber(client, config)

	if config.VisionEnabled() {
		vc := vision.NewChatVisionClient(config.VisionURL, config.VisionAPIKey, config.VisionModel)
		vc.Retrier = pc.Retrier
		pc.OCR = vision.NewOCRProcessor(vc, vision.NewNormalizer(vision.OptionsFromConfig(config)), config.MaxWorkers)
	} else {
		utils.Warn("未配置视觉模型API Key，将跳过幻灯片识别")
	}

	return pc, nil
}

func newRetrier(config *models.Config) *utils.ErrorHandler {
	h := utils.NewErrorHandler(config.MaxRetries, config.RetryDelay)
	h.ShouldRetry = utils.IsRetryable
	return h
}

func (pc *ProcessorController) batchProgressCallback(current, total int, filename string, result *audio.BatchResult) {
	if result == nil {
		fmt.Printf("[%d/%d] 准备音频: %s\n", current, total, filename)
		return
	}
	if result.Success {
		color.Green("[%d/%d] 音频就绪: %s (%s)", current, total, filename,
			utils.FormatTimeDuration(result.ProcessTime.Seconds()))
	} else {
		color.Red("[%d/%d] 音频准备失败: %s - %v", current, total, filename, result.Error)
	}
}

// ProcessAll 处理媒体文件夹中尚未处理的文件，单个文件失败不会中断其他文件
func (pc *ProcessorController) ProcessAll(ctx context.Context) ([]models.Report, error) {
	if pc.Stats.StartTime.IsZero() {
		pc.Stats.StartTime = time.Now()
	}

	files, err := pc.Scanner.ScanDirectory(pc.Config.MediaFolder)
	if err != nil {
		return nil, fmt.Errorf("扫描媒体目录失败: %w", err)
	}
	files = pc.Scanner.FilterNewFiles(files, pc.processedPaths())

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	prepared := pc.BatchProcessor.PrepareFiles(ctx, paths)

	reports := make([]models.Report, 0, len(prepared))
	for _, result := range prepared {
		if !result.Success {
			pc.recordResult(result.FilePath, false)
			continue
		}

		report, err := pc.runPrepared(ctx, result.FilePath, result.OutputPath, result.Converted)
		if err != nil {
			utils.Error("处理失败 %s: %v", filepath.Base(result.FilePath), err)
			pc.recordResult(result.FilePath, false)
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			continue
		}
		pc.recordResult(result.FilePath, true)
		reports = append(reports, *report)
	}

	return reports, nil
}

// ProcessFile 处理单个媒体文件
func (pc *ProcessorController) ProcessFile(ctx context.Context, mediaPath string) (*models.Report, error) {
	audioPath, converted, err := pc.Converter.PrepareAudio(ctx, mediaPath)
	if err != nil {
		pc.recordResult(mediaPath, false)
		return nil, err
	}

	report, err := pc.runPrepared(ctx, mediaPath, audioPath, converted)
	pc.recordResult(mediaPath, err == nil)
	return report, err
}

// runPrepared 失败时删除转换出的临时WAV，失败原因计入 Retrier 的错误统计
func (pc *ProcessorController) runPrepared(ctx context.Context, mediaPath, audioPath string, converted bool) (*models.Report, error) {
	var cleanup func()
	if converted {
		cleanup = func() {
			if err := os.Remove(audioPath); err != nil && !os.IsNotExist(err) {
				utils.Warn("删除临时音频失败: %v", err)
			}
		}
	}

	var report *models.Report
	err := pc.Retrier.SafeExecute("process_file", func() error {
		var err error
		report, err = pc.processPrepared(ctx, mediaPath, audioPath)
		return err
	}, cleanup)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (pc *ProcessorController) processPrepared(ctx context.Context, mediaPath, audioPath string) (*models.Report, error) {
	start := time.Now()
	taskID := storage.NewTaskID()
	log := utils.WithField("task", taskID)
	log.Infof("开始处理: %s", filepath.Base(mediaPath))

	transcript, err := pc.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("语音识别失败: %w", err)
	}

	outputFiles, err := pc.ASRProcessor.ProcessResults(transcript, mediaPath)
	if err != nil {
		return nil, err
	}

	if _, err := pc.Storage.SaveTranscript(ctx, taskID, transcript); err != nil {
		log.Warnf("保存转写结果失败: %v", err)
	}

	slides, err := pc.processSlides(ctx, mediaPath)
	if err != nil {
		return nil, err
	}

	if len(slides) > 0 {
		if p, err := pc.JSONExporter.ExportSlides(slides, mediaPath); err != nil {
			log.Warnf("导出幻灯片JSON失败: %v", err)
		} else {
			outputFiles["slides"] = p
		}

		if p, err := pc.MDExporter.ExportMarkdown(mediaPath, NotesSuffix, &transcript, slides); err != nil {
			log.Warnf("导出笔记失败: %v", err)
		} else {
			outputFiles["notes"] = p
		}

		if _, err := pc.Storage.SaveOCRResults(ctx, taskID, slides); err != nil {
			log.Warnf("保存幻灯片识别结果失败: %v", err)
		}
	}

	report := &models.Report{
		TaskID:        taskID,
		FilePath:      mediaPath,
		Service:       pc.Transcriber.Name(),
		OutputFiles:   outputFiles,
		SegmentCount:  len(transcript.Segments),
		SlideCount:    len(slides),
		Duration:      transcript.Duration,
		ProcessTimeMs: time.Since(start).Milliseconds(),
	}

	if _, err := pc.Storage.SaveReport(ctx, *report); err != nil {
		log.Warnf("保存任务报告失败: %v", err)
	}

	log.Infof("处理完成: %d 个分段, %d 张幻灯片, 耗时 %s",
		report.SegmentCount, report.SlideCount, utils.FormatTimeDuration(time.Since(start).Seconds()))
	return report, nil
}

// SlidesDirFor 返回媒体文件对应的幻灯片目录：<SlidesFolder>/<媒体文件名>
func (pc *ProcessorController) SlidesDirFor(mediaPath string) string {
	if pc.Config.SlidesFolder == "" {
		return ""
	}
	return filepath.Join(pc.Config.SlidesFolder, utils.BaseName(mediaPath))
}

func (pc *ProcessorController) processSlides(ctx context.Context, mediaPath string) ([]models.OCRResult, error) {
	dir := pc.SlidesDirFor(mediaPath)
	if pc.OCR == nil || dir == "" || !utils.CheckDirExists(dir) {
		return nil, nil
	}
	return pc.ProcessSlidesDir(ctx, dir)
}

// ProcessSlidesDir 识别目录中的所有幻灯片图片
func (pc *ProcessorController) ProcessSlidesDir(ctx context.Context, dir string) ([]models.OCRResult, error) {
	if pc.OCR == nil {
		return nil, fmt.Errorf("未配置视觉模型")
	}

	slides, err := pc.Scanner.ScanSlides(dir)
	if err != nil {
		return nil, fmt.Errorf("扫描幻灯片失败: %w", err)
	}
	if len(slides) == 0 {
		return nil, nil
	}

	bar := ui.NewProgressBar(len(slides), "幻灯片识别", filepath.Base(dir))
	// 监控模式下可能并发处理多个文件，进度回调挂在副本上
	ocr := *pc.OCR
	ocr.ProgressCallback = func(done, total int) {
		bar.Increment("")
	}

	results, err := ocr.ProcessSlides(ctx, slides, nil)
	if err != nil {
		fmt.Println()
		return nil, fmt.Errorf("幻灯片识别失败: %w", err)
	}
	bar.Complete("完成")
	return results, nil
}

// StartWatchMode 先处理已有文件，然后监控新文件，直到 ctx 结束
func (pc *ProcessorController) StartWatchMode(ctx context.Context) error {
	return pc.startWatch(ctx, watcher.DefaultDebounce)
}

func (pc *ProcessorController) startWatch(ctx context.Context, debounce time.Duration) error {
	w, err := watcher.NewMediaWatcher(ctx, pc.Config, debounce, func(ctx context.Context, path string) error {
		_, err := pc.ProcessFile(ctx, path)
		return err
	})
	if err != nil {
		return err
	}

	if utils.CheckDirExists(pc.Config.MediaFolder) {
		reports, err := pc.ProcessAll(ctx)
		if err != nil {
			return err
		}
		for _, r := range reports {
			w.Handler().MarkProcessed(r.FilePath)
		}
	}

	utils.Info("监控已启动，按Ctrl+C退出...")
	return w.Run(ctx)
}

func (pc *ProcessorController) recordResult(mediaPath string, success bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	pc.Stats.TotalFiles++
	if success {
		pc.Stats.SuccessfulFiles++
		pc.processed[mediaPath] = true
	} else {
		pc.Stats.FailedFiles++
	}
}

func (pc *ProcessorController) processedPaths() map[string]bool {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	paths := make(map[string]bool, len(pc.processed))
	for p := range pc.processed {
		paths[p] = true
	}
	return paths
}

// PrintStats 打印处理统计和错误统计
func (pc *ProcessorController) PrintStats() {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	fmt.Println()
	color.Cyan("处理统计:")
	fmt.Printf("  文件总数: %d\n", pc.Stats.TotalFiles)
	color.Green("  成功: %d", pc.Stats.SuccessfulFiles)
	if pc.Stats.FailedFiles > 0 {
		color.Red("  失败: %d", pc.Stats.FailedFiles)
	}
	if !pc.Stats.StartTime.IsZero() {
		fmt.Printf("  总耗时: %s\n", utils.FormatTimeDuration(time.Since(pc.Stats.StartTime).Seconds()))
	}
	if pc.Stats.FailedFiles > 0 {
		pc.Retrier.PrintErrorStats()
	}
}
