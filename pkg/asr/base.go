package asr

import (
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// AudioFile 加载到内存的音频文件
type AudioFile struct {
	Path     string // 音频文件路径
	Binary   []byte // 文件二进制内容
	CRC32Hex string // 文件CRC32校验和（十六进制）
}

// LoadAudioFile 读取音频文件并计算校验和
func LoadAudioFile(audioPath string) (*AudioFile, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("无效的音频路径 %s: %w", audioPath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("无效的音频路径 %s: 是一个目录", audioPath)
	}

	data, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("读取音频文件失败: %w", err)
	}

	f := &AudioFile{
		Path:     audioPath,
		Binary:   data,
		CRC32Hex: fmt.Sprintf("%08x", crc32.ChecksumIEEE(data)),
	}
	utils.Debug("音频 %s 的CRC32校验和: %s", audioPath, f.CRC32Hex)
	return f, nil
}

// CacheKey 获取缓存键名，同一音频不同语言分开缓存
func (f *AudioFile) CacheKey(prefix, language string) string {
	return fmt.Sprintf("%s-%s-%s.json", prefix, language, f.CRC32Hex)
}

// ResultCache 以文件形式缓存转写结果
type ResultCache struct {
	Dir string
}

// Load 从缓存加载识别结果
func (c *ResultCache) Load(cacheKey string) (models.TranscriptResult, bool) {
	var result models.TranscriptResult
	if c == nil || c.Dir == "" {
		return result, false
	}

	found, err := utils.LoadJSONFile(filepath.Join(c.Dir, cacheKey), &result)
	if err != nil {
		utils.Warn("读取缓存失败 %s: %v", cacheKey, err)
		return models.TranscriptResult{}, false
	}
	if !found {
		utils.Debug("缓存文件不存在: %s", cacheKey)
	}
	return result, found
}

// Save 保存识别结果到缓存
func (c *ResultCache) Save(cacheKey string, result models.TranscriptResult) error {
	if c == nil || c.Dir == "" {
		return nil
	}
	if err := utils.SaveJSONFile(filepath.Join(c.Dir, cacheKey), result); err != nil {
		return fmt.Errorf("保存缓存失败: %w", err)
	}
	return nil
}
