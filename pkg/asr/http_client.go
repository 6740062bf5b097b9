package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// HTTPRecognitionClient 通过HTTP提交整段音频的识别客户端
//
// 请求为multipart表单：config 字段是JSON格式的 RecognitionConfig，
// audio 字段是音频数据。响应为 RecognizeResponse 的JSON。
type HTTPRecognitionClient struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
	Retrier    *utils.ErrorHandler // 为nil时不重试
}

// NewHTTPRecognitionClient 创建识别客户端
func NewHTTPRecognitionClient(url, apiKey string) *HTTPRecognitionClient {
	return &HTTPRecognitionClient{
		URL:    url,
		APIKey: apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Minute, // 离线识别大文件耗时较长
		},
	}
}

// OfflineRecognize 实现RecognitionClient接口
func (c *HTTPRecognitionClient) OfflineRecognize(ctx context.Context, audio []byte, config RecognitionConfig) (*RecognizeResponse, error) {
	if c.Retrier == nil {
		return c.submit(ctx, audio, config)
	}

	var resp *RecognizeResponse
	err := c.Retrier.RetryContext(ctx, "offline_recognize", func() error {
		var err error
		resp, err = c.submit(ctx, audio, config)
		return err
	})
	return resp, err
}

func (c *HTTPRecognitionClient) submit(ctx context.Context, audio []byte, config RecognitionConfig) (*RecognizeResponse, error) {
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	configJSON, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("序列化识别参数失败: %w", err)
	}
	if err := writer.WriteField("config", string(configJSON)); err != nil {
		return nil, fmt.Errorf("写入表单字段失败: %w", err)
	}

	part, err := writer.CreateFormFile("audio", "audio.wav")
	if err != nil {
		return nil, fmt.Errorf("创建表单文件失败: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("写入文件数据失败: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("关闭表单写入器失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, &requestBody)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("识别请求发送失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &utils.RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("识别服务返回错误状态码 %d: %s", resp.StatusCode, utils.Truncate(string(body), 200))
	}

	var result RecognizeResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	return &result, nil
}
