package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("对象不存在")

// LocalClient 基于本地文件系统的对象存储，开发和测试环境使用
//
// key 使用 / 分隔，例如 "transcripts/<task-id>/result.json"。
type LocalClient struct {
	Root    string
	BaseURL string
}

// NewLocalClient 创建存储客户端并确保根目录存在
func NewLocalClient(root, baseURL string) (*LocalClient, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalClient{
		Root:    root,
		BaseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

func (c *LocalClient) filePath(key string) string {
	return filepath.Join(c.Root, filepath.FromSlash(key))
}

// fileURL 生成访问URL，URL中的分隔符始终为 /
func (c *LocalClient) fileURL(key string) string {
	return c.BaseURL + "/" + strings.ReplaceAll(key, "\\", "/")
}

// Upload 保存数据并返回访问URL。本地存储忽略 contentType。
func (c *LocalClient) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p := c.filePath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("写入对象 %s 失败: %w", key, err)
	}

	utils.Debug("已保存对象 %s (%s)", key, utils.FormatFileSize(int64(len(data))))
	return c.fileURL(key), nil
}

// Download 读取对象，不存在时返回 ErrNotFound
func (c *LocalClient) Download(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.filePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s 失败: %w", key, err)
	}
	return data, nil
}

// Delete 删除对象，对象不存在不算错误
func (c *LocalClient) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(c.filePath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除对象 %s 失败: %w", key, err)
	}
	return nil
}

// Exists 判断对象是否存在
func (c *LocalClient) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return utils.CheckFileExists(c.filePath(key)), nil
}

// PresignedUploadURL 本地存储没有签名，直接返回普通URL
func (c *LocalClient) PresignedUploadURL(key, contentType string) string {
	return c.fileURL(key)
}

// PresignedDownloadURL 同 PresignedUploadURL
func (c *LocalClient) PresignedDownloadURL(key string) string {
	return c.fileURL(key)
}

// NewTaskID 生成任务ID
func NewTaskID() string {
	return uuid.New().String()
}

func (c *LocalClient) uploadJSON(ctx context.Context, key string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化 %s 失败: %w", key, err)
	}
	return c.Upload(ctx, key, data, "application/json")
}

// SaveTranscript 保存转写结果到 transcripts/<taskID>/transcript.json
func (c *LocalClient) SaveTranscript(ctx context.Context, taskID string, result models.TranscriptResult) (string, error) {
	return c.uploadJSON(ctx, path.Join("transcripts", taskID, "transcript.json"), result)
}

// SaveOCRResults 保存幻灯片识别结果到 slides/<taskID>/ocr.json
func (c *LocalClient) SaveOCRResults(ctx context.Context, taskID string, results []models.OCRResult) (string, error) {
	if results == nil {
		results = []models.OCRResult{}
	}
	return c.uploadJSON(ctx, path.Join("slides", taskID, "ocr.json"), results)
}

// SaveReport 保存任务报告到 reports/<taskID>/report.json
func (c *LocalClient) SaveReport(ctx context.Context, report models.Report) (string, error) {
	return c.uploadJSON(ctx, path.Join("reports", report.TaskID, "report.json"), report)
}
