package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// ProgressCallback 是进度回调函数类型
type ProgressCallback func(current, total int, message string)

// CommandRunner 执行外部命令，返回标准输出
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Converter 把任意媒体文件转换为识别服务要求的WAV格式
type Converter struct {
	TempDir          string
	SampleRate       int
	ProgressCallback ProgressCallback
	Run              CommandRunner
}

// NewConverter 创建新的音频转换器
func NewConverter(config *models.Config, callback ProgressCallback) *Converter {
	tempDir := config.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "lecture-processor")
	}

	return &Converter{
		TempDir:          tempDir,
		SampleRate:       config.SampleRate,
		ProgressCallback: callback,
		Run:              execCommand,
	}
}

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s 执行失败: %w: %s", name, err, utils.Truncate(strings.TrimSpace(stderr.String()), 300))
	}
	return out, nil
}

// CheckFFmpeg 检查 ffmpeg 是否可用
func CheckFFmpeg() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("未找到 ffmpeg，请先安装FFmpeg: %w", err)
	}
	return nil
}

// ffmpegArgs 转为单声道16位PCM WAV
func ffmpegArgs(inputPath, outputPath string, sampleRate int) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-acodec", "pcm_s16le",
		outputPath,
	}
}

// OutputPath 转换结果的路径：<TempDir>/<媒体文件名>.wav，扩展名保留
func (c *Converter) OutputPath(inputPath string) string {
	return filepath.Join(c.TempDir, filepath.Base(inputPath)+".wav")
}

// PrepareAudio 返回可以直接提交识别的WAV路径
//
// 输入已经满足格式要求时原样返回，converted 为false。
func (c *Converter) PrepareAudio(ctx context.Context, inputPath string) (string, bool, error) {
	if !utils.CheckFileExists(inputPath) {
		return "", false, fmt.Errorf("媒体文件不存在: %s", inputPath)
	}

	if err := ValidateWAV(inputPath, c.SampleRate); err == nil {
		utils.Debug("音频已满足识别要求: %s", inputPath)
		return inputPath, false, nil
	}

	if err := utils.EnsureDirExists(c.TempDir); err != nil {
		return "", false, err
	}
	outputPath := c.OutputPath(inputPath)

	c.report(0, 1, "准备转换音频")
	utils.Info("正在转换音频: %s", filepath.Base(inputPath))

	if _, err := c.Run(ctx, "ffmpeg", ffmpegArgs(inputPath, outputPath, c.SampleRate)...); err != nil {
		c.report(1, 1, fmt.Sprintf("转换失败: %v", err))
		return "", false, fmt.Errorf("音频转换失败: %w", err)
	}

	if err := ValidateWAV(outputPath, c.SampleRate); err != nil {
		c.report(1, 1, "转换失败: 输出格式不正确")
		return "", false, fmt.Errorf("转换后的音频不可用: %w", err)
	}

	c.report(1, 1, "转换完成")
	utils.Info("音频转换成功: %s", outputPath)
	return outputPath, true, nil
}

func (c *Converter) report(current, total int, message string) {
	if c.ProgressCallback != nil {
		c.ProgressCallback(current, total, message)
	}
}
