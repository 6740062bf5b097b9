package asr

import (
	"context"

	"github.com/ccp-p/lecture-processor/pkg/models"
)

// Word 单词级时间戳（毫秒）
type Word struct {
	Word    string  `json:"word,omitempty"`
	StartMs float64 `json:"start_time"`
	EndMs   float64 `json:"end_time"`
}

// Alternative 一个候选识别结果，第一个候选置信度最高
type Alternative struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence,omitempty"`
	Words      []Word  `json:"words,omitempty"`
}

// Result 识别服务返回的一段结果
type Result struct {
	Alternatives []Alternative `json:"alternatives"`
}

// RecognizeResponse 识别服务的完整响应
type RecognizeResponse struct {
	Results []Result `json:"results"`
}

// RecognitionConfig 发送给识别服务的参数
type RecognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sample_rate_hertz"`
	LanguageCode               string `json:"language_code"`
	MaxAlternatives            int    `json:"max_alternatives"`
	EnableAutomaticPunctuation bool   `json:"enable_automatic_punctuation"`
	VerbatimTranscripts        bool   `json:"verbatim_transcripts"`
	EnableWordTimeOffsets      bool   `json:"enable_word_time_offsets"`
}

// NewRecognitionConfig 离线识别 + 单词时间戳
func NewRecognitionConfig(language string, sampleRate int) RecognitionConfig {
	return RecognitionConfig{
		Encoding:                   "LINEAR_PCM",
		SampleRateHertz:            sampleRate,
		LanguageCode:               language,
		MaxAlternatives:            1,
		EnableAutomaticPunctuation: true,
		VerbatimTranscripts:        false,
		EnableWordTimeOffsets:      true,
	}
}

// RecognitionClient 语音识别服务网关
type RecognitionClient interface {
	// OfflineRecognize 提交整段音频并返回识别结果
	OfflineRecognize(ctx context.Context, audio []byte, config RecognitionConfig) (*RecognizeResponse, error)
}

// Transcriber 语音转写能力，构造时决定是真实实现还是不可用实现
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (models.TranscriptResult, error)
	// Name 服务名称，用于日志和统计
	Name() string
}
