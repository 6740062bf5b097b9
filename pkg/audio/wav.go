package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// WAVInfo WAV文件头信息
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Format     int
}

// ReadWAVInfo 读取WAV文件头
func ReadWAVInfo(path string) (WAVInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return WAVInfo{}, fmt.Errorf("不是有效的WAV文件: %s", path)
	}

	return WAVInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Format:     int(d.WavAudioFormat),
	}, nil
}

// ValidateWAV 检查文件是否为指定采样率的单声道16位PCM
func ValidateWAV(path string, sampleRate int) error {
	info, err := ReadWAVInfo(path)
	if err != nil {
		return err
	}

	switch {
	case info.Format != wavFormatPCM:
		return fmt.Errorf("WAV编码不是PCM: %d", info.Format)
	case info.SampleRate != sampleRate:
		return fmt.Errorf("采样率为 %d，需要 %d", info.SampleRate, sampleRate)
	case info.Channels != 1:
		return fmt.Errorf("声道数为 %d，需要单声道", info.Channels)
	case info.BitDepth != 16:
		return fmt.Errorf("位深为 %d，需要16位", info.BitDepth)
	}
	return nil
}
