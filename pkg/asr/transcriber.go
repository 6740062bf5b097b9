package asr

import (
	"context"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// UnavailableText 未配置识别服务时返回的说明文本
const UnavailableText = "[STT unavailable - recognition client not configured]"

// NewTranscriber 根据是否提供识别客户端选择实现，之后不再检查可用性
func NewTranscriber(client RecognitionClient, config *models.Config) Transcriber {
	if client == nil {
		utils.Warn("未配置语音识别服务，STT将被禁用")
		return &UnavailableTranscriber{Language: config.Language}
	}

	p := &STTProcessor{
		Client:   client,
		Config:   NewRecognitionConfig(config.Language, config.SampleRate),
		Language: config.Language,
	}
	if config.UseCache {
		p.Cache = &ResultCache{Dir: config.CacheDir}
	}
	return p
}

// STTProcessor 调用识别服务并拼装转写结果
type STTProcessor struct {
	Client   RecognitionClient
	Config   RecognitionConfig
	Language string
	Cache    *ResultCache // 为nil时不使用缓存
}

// Name 实现Transcriber接口
func (p *STTProcessor) Name() string {
	return "recognition"
}

// Transcribe 实现Transcriber接口
//
// 识别服务调用失败时原样返回错误，不在这里重试。
func (p *STTProcessor) Transcribe(ctx context.Context, audioPath string) (models.TranscriptResult, error) {
	if err := ctx.Err(); err != nil {
		return models.TranscriptResult{}, err
	}

	audio, err := LoadAudioFile(audioPath)
	if err != nil {
		return models.TranscriptResult{}, err
	}

	cacheKey := audio.CacheKey("stt", p.Language)
	if cached, ok := p.Cache.Load(cacheKey); ok {
		utils.Info("从缓存加载识别结果: %s", audioPath)
		return cached, nil
	}

	log := utils.WithField("audio", audioPath)
	log.Infof("向识别服务发送 %s 数据...", utils.FormatFileSize(int64(len(audio.Binary))))

	resp, err := p.Client.OfflineRecognize(ctx, audio.Binary, p.Config)
	if err != nil {
		log.Errorf("识别服务调用失败: %v", err)
		return models.TranscriptResult{}, err
	}

	if resp == nil || len(resp.Results) == 0 {
		log.Warn("识别服务没有返回任何结果")
		return AssembleTranscript(nil, p.Language), nil
	}

	result := AssembleTranscript(resp.Results, p.Language)
	log.Infof("识别完成: %d 个分段, 时长 %s", len(result.Segments), result.Duration)

	if err := p.Cache.Save(cacheKey, result); err != nil {
		log.Warnf("保存识别结果到缓存失败: %v", err)
	}

	return result, nil
}

// UnavailableTranscriber 识别服务不可用时的实现，返回占位结果而不是错误
type UnavailableTranscriber struct {
	Language string
}

// Name 实现Transcriber接口
func (u *UnavailableTranscriber) Name() string {
	return "unavailable"
}

// Transcribe 实现Transcriber接口
func (u *UnavailableTranscriber) Transcribe(ctx context.Context, audioPath string) (models.TranscriptResult, error) {
	return models.TranscriptResult{
		FullText: UnavailableText,
		Segments: []models.TranscriptSegment{},
		Language: u.Language,
		Duration: models.At(0),
	}, nil
}
