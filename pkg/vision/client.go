package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// VisionClient 支持图片输入的大模型网关
type VisionClient interface {
	AnalyzeImage(ctx context.Context, imageBytes []byte, prompt, systemPrompt string) (string, error)
}

// ChatVisionClient 通过 OpenAI 兼容的 chat/completions 接口分析图片
type ChatVisionClient struct {
	APIKey     string
	URL        string
	Model      string
	HTTPClient *http.Client
	Retrier    *utils.ErrorHandler // 为nil时不重试
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string 或 []contentPart
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewChatVisionClient 创建一个新的视觉模型客户端
func NewChatVisionClient(url, apiKey, model string) *ChatVisionClient {
	return &ChatVisionClient{
		APIKey: apiKey,
		URL:    url,
		Model:  model,
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// AnalyzeImage 实现VisionClient接口
func (c *ChatVisionClient) AnalyzeImage(ctx context.Context, imageBytes []byte, prompt, systemPrompt string) (string, error) {
	if c.Retrier == nil {
		return c.send(ctx, imageBytes, prompt, systemPrompt)
	}

	var out string
	err := c.Retrier.RetryContext(ctx, "analyze_image", func() error {
		var err error
		out, err = c.send(ctx, imageBytes, prompt, systemPrompt)
		return err
	})
	return out, err
}

func (c *ChatVisionClient) send(ctx context.Context, imageBytes []byte, prompt, systemPrompt string) (string, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(imageBytes), base64.StdEncoding.EncodeToString(imageBytes))

	messages := make([]chatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		},
	})

	jsonBytes, err := json.Marshal(chatRequest{Model: c.Model, Messages: messages, MaxTokens: 4096})
	if err != nil {
		return "", fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(jsonBytes))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	utils.Debug("发送视觉模型请求到 %s (%s)", c.URL, utils.FormatFileSize(int64(len(imageBytes))))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", &utils.RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API返回错误状态码: %d, 响应: %s", resp.StatusCode, utils.Truncate(string(body), 200))
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("解析响应失败: %w", err)
	}
	if response.Error != nil {
		return "", fmt.Errorf("API错误: %s: %s", response.Error.Type, response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("API响应中没有生成内容")
	}

	return response.Choices[0].Message.Content, nil
}
