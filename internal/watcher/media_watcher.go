package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/scanner"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// DefaultDebounce 文件最后一次写入后等待多久才开始处理
const DefaultDebounce = 5 * time.Second

// ProcessFunc 处理一个新出现的媒体文件
type ProcessFunc func(ctx context.Context, filePath string) error

// PipelineHandler 把文件事件交给处理流水线，同一文件只处理一次
type PipelineHandler struct {
	ctx            context.Context
	process        ProcessFunc
	processedFiles map[string]bool
	mutex          sync.Mutex
	wg             sync.WaitGroup
}

// NewPipelineHandler 创建流水线处理器
func NewPipelineHandler(ctx context.Context, process ProcessFunc) *PipelineHandler {
	return &PipelineHandler{
		ctx:            ctx,
		process:        process,
		processedFiles: make(map[string]bool),
	}
}

// MarkProcessed 记录已处理过的文件，例如启动时扫描到的文件
func (h *PipelineHandler) MarkProcessed(filePath string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.processedFiles[filePath] = true
}

// OnFileCreated 处理文件创建事件
func (h *PipelineHandler) OnFileCreated(filePath string) {
	h.mutex.Lock()
	if h.processedFiles[filePath] {
		h.mutex.Unlock()
		return
	}
	h.processedFiles[filePath] = true
	h.mutex.Unlock()

	h.wg.Add(1)
	defer h.wg.Done()

	if err := h.ctx.Err(); err != nil {
		return
	}

	if err := h.process(h.ctx, filePath); err != nil {
		utils.Error("处理文件失败 %s: %v", filePath, err)
		// 失败的文件允许再次触发
		h.mutex.Lock()
		delete(h.processedFiles, filePath)
		h.mutex.Unlock()
	}
}

// OnFileModified 文件仍在写入，等待防抖结束
func (h *PipelineHandler) OnFileModified(filePath string) {
	utils.Debug("文件仍在写入: %s", filePath)
}

// OnFileDeleted 处理文件删除事件
func (h *PipelineHandler) OnFileDeleted(filePath string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.processedFiles, filePath)
}

// Wait 等待正在进行的处理结束
func (h *PipelineHandler) Wait() {
	h.wg.Wait()
}

// MediaWatcher 监控媒体文件夹，新文件出现时运行处理流水线
type MediaWatcher struct {
	monitor *FolderMonitor
	handler *PipelineHandler
}

// NewMediaWatcher 创建媒体文件监控器
func NewMediaWatcher(ctx context.Context, config *models.Config, debounce time.Duration, process ProcessFunc) (*MediaWatcher, error) {
	s := scanner.NewMediaScanner()
	extensions := append(append([]string{}, s.AudioExtensions...), s.VideoExtensions...)

	handler := NewPipelineHandler(ctx, process)
	monitor, err := NewFolderMonitor(config.MediaFolder, extensions, handler, debounce)
	if err != nil {
		return nil, err
	}

	return &MediaWatcher{monitor: monitor, handler: handler}, nil
}

// Handler 返回事件处理器
func (w *MediaWatcher) Handler() *PipelineHandler {
	return w.handler
}

// Run 启动监控并阻塞到 ctx 结束
func (w *MediaWatcher) Run(ctx context.Context) error {
	if err := w.monitor.Start(); err != nil {
		return err
	}
	utils.Info("媒体文件监控已启动")

	<-ctx.Done()

	w.monitor.Stop()
	w.handler.Wait()
	utils.Info("媒体文件监控已停止")
	return nil
}
