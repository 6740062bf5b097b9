package asr

import (
	"sort"
	"strings"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// AssembleTranscript 把识别服务返回的结果拼装为带时间戳的转写结果
//
// 每个结果只取第一个候选。有单词时间戳时按首尾单词生成分段；
// 没有时间戳但有文本时生成一个从0开始、结束时间无上界的占位段。
// 全部带时间戳时分段按开始时间稳定排序；结束时间不早于开始时间。
// 没有任何结果时返回空结果，这不是错误。
func AssembleTranscript(results []Result, language string) models.TranscriptResult {
	var fullText strings.Builder
	segments := make([]models.TranscriptSegment, 0, len(results))
	degraded := false

	for i, result := range results {
		if len(result.Alternatives) == 0 {
			continue
		}

		alt := result.Alternatives[0]
		fullText.WriteString(alt.Transcript)
		fullText.WriteString(" ")

		text := strings.TrimSpace(alt.Transcript)

		if len(alt.Words) > 0 {
			start := alt.Words[0].StartMs / 1000.0
			end := alt.Words[len(alt.Words)-1].EndMs / 1000.0
			if end < start {
				end = start
			}
			segments = append(segments, models.TranscriptSegment{
				Start: start,
				End:   models.At(end),
				Text:  text,
			})
			continue
		}

		if text != "" {
			utils.WithField("result", i).Warn("识别结果没有单词时间戳，生成占位分段")
			segments = append(segments, sentinelSegment(text))
			degraded = true
		}
	}

	full := strings.TrimSpace(fullText.String())
	if len(segments) == 0 && full != "" {
		utils.Warn("没有生成任何分段，用全文生成一个占位分段")
		segments = append(segments, sentinelSegment(full))
		degraded = true
	}

	// 离线识别的结果本身有序，这里只兜底乱序的响应。
	// 含占位段时保持输入顺序，占位段的0起点没有排序意义。
	if !degraded {
		sort.SliceStable(segments, func(i, j int) bool {
			return segments[i].Start < segments[j].Start
		})
	}

	duration := models.At(0)
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	return models.TranscriptResult{
		FullText: full,
		Segments: segments,
		Language: language,
		Duration: duration,
	}
}

func sentinelSegment(text string) models.TranscriptSegment {
	return models.TranscriptSegment{
		Start: 0,
		End:   models.Unbounded(),
		Text:  text,
	}
}
