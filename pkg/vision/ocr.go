package vision

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

const fence = "```"

// SystemPrompt 发给视觉模型的系统提示词
const SystemPrompt = `너는 수학 강의 슬라이드를 분석하는 전문가야.
이미지에서 텍스트와 수식을 정확하게 추출해서 마크다운 형식으로 변환해줘.

규칙:
1. 제목은 # 또는 ##으로 표시
2. 수식은 반드시 LaTeX 형식으로 변환 (인라인: $...$, 블록: $$...$$)
3. 리스트는 - 또는 숫자로 표시
4. 표가 있으면 마크다운 테이블로 변환
5. 중요한 내용은 **굵게** 표시
6. [중요] LaTeX 수식 작성 시 \begin{array} 등의 환경을 과도하게 중첩하지 마시오. 단순하고 명확하게 작성할 것.

출력 형식:
` + fence + `markdown
# 슬라이드 제목

본문 내용...

수식이 있으면:
$$
\int_0^\infty f(x) dx
$$
` + fence + "\n"

// UserPrompt 每张幻灯片的用户提示词
const UserPrompt = "이 슬라이드의 내용을 마크다운으로 변환해줘. 수식은 LaTeX로."

// OCRProcessor 用视觉模型识别幻灯片并规范化输出
type OCRProcessor struct {
	Client         VisionClient
	Normalizer     *Normalizer
	MaxConcurrency int

	// ProgressCallback 每完成一张幻灯片调用一次，可能被并发调用
	ProgressCallback func(done, total int)
}

// NewOCRProcessor 创建OCR处理器
func NewOCRProcessor(client VisionClient, normalizer *Normalizer, maxConcurrency int) *OCRProcessor {
	if normalizer == nil {
		normalizer = NewNormalizer(DefaultOptions())
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &OCRProcessor{
		Client:         client,
		Normalizer:     normalizer,
		MaxConcurrency: maxConcurrency,
	}
}

// ProcessSlide 识别单张幻灯片
func (p *OCRProcessor) ProcessSlide(ctx context.Context, slide models.DetectedSlide, image []byte) (models.OCRResult, error) {
	raw, err := p.Client.AnalyzeImage(ctx, image, UserPrompt, SystemPrompt)
	if err != nil {
		return models.OCRResult{}, fmt.Errorf("幻灯片 %d 识别失败: %w", slide.SlideNumber, err)
	}
	return p.Normalizer.Normalize(slide, raw), nil
}

// ProcessSlideFile 读取幻灯片图片并识别
func (p *OCRProcessor) ProcessSlideFile(ctx context.Context, slide models.DetectedSlide) (models.OCRResult, error) {
	image, err := os.ReadFile(slide.ImagePath)
	if err != nil {
		return models.OCRResult{}, fmt.Errorf("读取幻灯片图片失败: %w", err)
	}
	return p.ProcessSlide(ctx, slide, image)
}

// ProcessSlides 并发识别多张幻灯片，结果顺序与输入一致
//
// images 为nil时从 slide.ImagePath 读取图片。任意一张失败时取消其余任务并返回第一个错误。
func (p *OCRProcessor) ProcessSlides(ctx context.Context, slides []models.DetectedSlide, images [][]byte) ([]models.OCRResult, error) {
	if images != nil && len(images) != len(slides) {
		return nil, fmt.Errorf("幻灯片数量(%d)与图片数量(%d)不一致", len(slides), len(images))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]models.OCRResult, len(slides))
	sem := make(chan struct{}, p.MaxConcurrency)
	var wg sync.WaitGroup
	var once sync.Once
	var firstErr error
	var done int32

	utils.Info("开始识别 %d 张幻灯片，并发数 %d", len(slides), p.MaxConcurrency)

	for i, slide := range slides {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(i int, slide models.DetectedSlide) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}

			var res models.OCRResult
			var err error
			if images != nil {
				res, err = p.ProcessSlide(ctx, slide, images[i])
			} else {
				res, err = p.ProcessSlideFile(ctx, slide)
			}
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}

			results[i] = res
			if p.ProgressCallback != nil {
				p.ProgressCallback(int(atomic.AddInt32(&done, 1)), len(slides))
			}
			utils.Debug("幻灯片 %d 识别完成: %s", slide.SlideNumber, res.Title)
		}(i, slide)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
