package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// 识别与过滤相关的默认值
const (
	DefaultLanguage            = "ko-KR"
	DefaultSampleRate          = 16000
	DefaultRepeatThreshold     = 3
	DefaultLineLengthThreshold = 500
	DefaultHallucinationMarker = `\begin{array}`
)

// Config 表示应用程序的配置
type Config struct {
	MediaFolder  string `json:"media_folder" yaml:"media_folder"`   // 媒体文件所在文件夹
	SlidesFolder string `json:"slides_folder" yaml:"slides_folder"` // 幻灯片图片文件夹
	OutputFolder string `json:"output_folder" yaml:"output_folder"` // 输出结果文件夹
	TempDir      string `json:"temp_dir" yaml:"temp_dir"`           // 临时目录

	// 语音识别
	Language          string `json:"language" yaml:"language"`
	SampleRate        int    `json:"sample_rate" yaml:"sample_rate"`
	RecognitionURL    string `json:"recognition_url" yaml:"recognition_url"`
	RecognitionAPIKey string `json:"recognition_api_key" yaml:"recognition_api_key"`
	UseCache          bool   `json:"use_cache" yaml:"use_cache"`
	CacheDir          string `json:"cache_dir" yaml:"cache_dir"`

	// 视觉模型
	VisionURL    string `json:"vision_url" yaml:"vision_url"`
	VisionAPIKey string `json:"vision_api_key" yaml:"vision_api_key"`
	VisionModel  string `json:"vision_model" yaml:"vision_model"`

	// 幻觉过滤
	HallucinationMarker          string `json:"hallucination_marker" yaml:"hallucination_marker"`
	HallucinationRepeatThreshold int    `json:"hallucination_repeat_threshold" yaml:"hallucination_repeat_threshold"`
	HallucinationLineThreshold   int    `json:"hallucination_line_threshold" yaml:"hallucination_line_threshold"`

	// 存储
	StoragePath    string `json:"storage_path" yaml:"storage_path"`
	StorageBaseURL string `json:"storage_base_url" yaml:"storage_base_url"`

	MaxRetries int     `json:"max_retries" yaml:"max_retries"` // 最大重试次数
	RetryDelay float64 `json:"retry_delay" yaml:"retry_delay"` // 重试延迟（秒）
	MaxWorkers int     `json:"max_workers" yaml:"max_workers"` // 幻灯片并发数

	ExportSRT  bool `json:"export_srt" yaml:"export_srt"`
	ExportJSON bool `json:"export_json" yaml:"export_json"`
	ExportMD   bool `json:"export_md" yaml:"export_md"`
	WatchMode  bool `json:"watch_mode" yaml:"watch_mode"`

	LogLevel string `json:"log_level" yaml:"log_level"`
	LogFile  string `json:"log_file" yaml:"log_file"`
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		MediaFolder:  "./media",
		SlidesFolder: "",
		OutputFolder: "./output",
		TempDir:      "",

		Language:   DefaultLanguage,
		SampleRate: DefaultSampleRate,
		UseCache:   false,
		CacheDir:   "./cache",

		VisionURL:   "https://api.openai.com/v1/chat/completions",
		VisionModel: "gpt-4o",

		HallucinationMarker:          DefaultHallucinationMarker,
		HallucinationRepeatThreshold: DefaultRepeatThreshold,
		HallucinationLineThreshold:   DefaultLineLengthThreshold,

		StoragePath:    "./storage",
		StorageBaseURL: "http://localhost:8000/files",

		MaxRetries: 3,
		RetryDelay: 1.0,
		MaxWorkers: 4,

		ExportSRT:  true,
		ExportJSON: true,
		ExportMD:   true,
		WatchMode:  false,

		LogLevel: "INFO",
		LogFile:  "",
	}
}

// Validate 验证配置是否有效，只检查取值，不触碰文件系统
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Language) == "" {
		return &ConfigValidationError{"Language", "不能为空"}
	}

	if c.SampleRate != DefaultSampleRate {
		return &ConfigValidationError{"SampleRate", fmt.Sprintf("仅支持 %d Hz 单声道PCM", DefaultSampleRate)}
	}

	if c.HallucinationMarker == "" {
		return &ConfigValidationError{"HallucinationMarker", "不能为空"}
	}

	if c.HallucinationRepeatThreshold < 1 {
		return &ConfigValidationError{"HallucinationRepeatThreshold", "必须大于0"}
	}

	if c.HallucinationLineThreshold < 1 {
		return &ConfigValidationError{"HallucinationLineThreshold", "必须大于0"}
	}

	if c.MaxRetries < 1 || c.MaxRetries > 10 {
		return &ConfigValidationError{"MaxRetries", "必须在1-10之间"}
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 16 {
		return &ConfigValidationError{"MaxWorkers", "必须在1-16之间"}
	}

	if c.RetryDelay < 0 || c.RetryDelay > 10.0 {
		return &ConfigValidationError{"RetryDelay", "必须在0-10.0秒之间"}
	}

	if c.StoragePath == "" {
		return &ConfigValidationError{"StoragePath", "不能为空"}
	}

	return nil
}

// RecognitionEnabled 是否配置了语音识别服务
func (c *Config) RecognitionEnabled() bool {
	return c.RecognitionURL != ""
}

// VisionEnabled 是否配置了视觉模型，默认地址需要API Key
func (c *Config) VisionEnabled() bool {
	return c.VisionURL != "" && c.VisionAPIKey != ""
}

// LoadFromFile 从文件加载配置，.yaml/.yml 按YAML解析，其余按JSON解析
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	loaded := *c
	if isYAML(path) {
		err = yaml.Unmarshal(data, &loaded)
	} else {
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	if err := loaded.Validate(); err != nil {
		return err
	}

	*c = loaded
	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Update 批量更新配置，验证失败时回滚
func (c *Config) Update(updates map[string]interface{}) error {
	tempConfig := *c

	// 将更新序列化为JSON再反序列化到结构体中
	updateBytes, err := json.Marshal(updates)
	if err != nil {
		return fmt.Errorf("序列化更新数据失败: %w", err)
	}

	if err := json.Unmarshal(updateBytes, c); err != nil {
		*c = tempConfig
		return fmt.Errorf("应用配置更新失败: %w", err)
	}

	if err := c.Validate(); err != nil {
		*c = tempConfig
		return err
	}

	return nil
}

// Reset 重置为默认配置
func (c *Config) Reset() {
	*c = *NewDefaultConfig()
}

// PrintConfig 打印当前配置，密钥会被隐藏
func (c *Config) PrintConfig() {
	masked := *c
	masked.RecognitionAPIKey = maskSecret(masked.RecognitionAPIKey)
	masked.VisionAPIKey = maskSecret(masked.VisionAPIKey)

	bytes, err := json.MarshalIndent(masked, "", "  ")
	if err != nil {
		utils.Error("序列化配置失败: %v", err)
		return
	}
	utils.Info("当前配置:\n%s", string(bytes))
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
