package vision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/lecture-processor/pkg/models"
)

type MockVisionClient struct {
	mock.Mock
}

func (m *MockVisionClient) AnalyzeImage(ctx context.Context, imageBytes []byte, prompt, systemPrompt string) (string, error) {
	args := m.Called(ctx, imageBytes, prompt, systemPrompt)
	return args.String(0), args.Error(1)
}

func slides(n int) ([]models.DetectedSlide, [][]byte) {
	out := make([]models.DetectedSlide, n)
	images := make([][]byte, n)
	for i := range out {
		out[i] = models.DetectedSlide{SlideNumber: i + 1, Timestamp: float64(i) * 30}
		images[i] = []byte(fmt.Sprintf("image-%d", i+1))
	}
	return out, images
}

func TestProcessSlide(t *testing.T) {
	client := new(MockVisionClient)
	raw := "# 적분\n" + strings.Repeat(marker, 4) + "\n$$ \\int f $$"
	client.On("AnalyzeImage", mock.Anything, []byte("png"), UserPrompt, SystemPrompt).Return(raw, nil).Once()

	p := NewOCRProcessor(client, nil, 2)
	result, err := p.ProcessSlide(context.Background(), models.DetectedSlide{SlideNumber: 3}, []byte("png"))

	require.NoError(t, err)
	assert.Equal(t, 3, result.SlideNumber)
	assert.Equal(t, raw, result.RawText)
	assert.Equal(t, "# 적분\n$$ \\int f $$", result.StructuredMarkdown)
	assert.Equal(t, "적분", result.Title)
	assert.Equal(t, []string{" \\int f "}, result.LatexExpressions)
	client.AssertExpectations(t)
}

func TestProcessSlideError(t *testing.T) {
	client := new(MockVisionClient)
	callErr := errors.New("quota exceeded")
	client.On("AnalyzeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", callErr)

	_, err := NewOCRProcessor(client, nil, 1).ProcessSlide(context.Background(), models.DetectedSlide{SlideNumber: 1}, nil)
	assert.ErrorIs(t, err, callErr)
}

func TestProcessSlidesKeepsInputOrder(t *testing.T) {
	list, images := slides(8)
	client := new(MockVisionClient)
	for i := range list {
		client.On("AnalyzeImage", mock.Anything, images[i], UserPrompt, SystemPrompt).
			Return(fmt.Sprintf("# Slide %d", i+1), nil).Once()
	}

	p := NewOCRProcessor(client, nil, 3)
	var calls int32
	p.ProgressCallback = func(done, total int) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, 8, total)
	}

	results, err := p.ProcessSlides(context.Background(), list, images)

	require.NoError(t, err)
	require.Len(t, results, 8)
	assert.Equal(t, int32(8), atomic.LoadInt32(&calls))
	for i, r := range results {
		assert.Equal(t, i+1, r.SlideNumber)
		assert.Equal(t, fmt.Sprintf("Slide %d", i+1), r.Title)
	}
	client.AssertExpectations(t)
}

func TestProcessSlidesReadsImageFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "slide_001.png")
	require.NoError(t, os.WriteFile(path, []byte("from-disk"), 0644))

	client := new(MockVisionClient)
	client.On("AnalyzeImage", mock.Anything, []byte("from-disk"), UserPrompt, SystemPrompt).Return("# 디스크", nil).Once()

	results, err := NewOCRProcessor(client, nil, 2).ProcessSlides(context.Background(),
		[]models.DetectedSlide{{SlideNumber: 1, ImagePath: path}}, nil)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "디스크", results[0].Title)

	_, err = NewOCRProcessor(client, nil, 2).ProcessSlides(context.Background(),
		[]models.DetectedSlide{{SlideNumber: 2, ImagePath: filepath.Join(dir, "missing.png")}}, nil)
	assert.Error(t, err)
}

func TestProcessSlidesFirstErrorWins(t *testing.T) {
	list, images := slides(4)
	callErr := errors.New("bad image")

	client := new(MockVisionClient)
	client.On("AnalyzeImage", mock.Anything, images[2], mock.Anything, mock.Anything).Return("", callErr)
	client.On("AnalyzeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("# ok", nil)

	results, err := NewOCRProcessor(client, nil, 1).ProcessSlides(context.Background(), list, images)

	assert.ErrorIs(t, err, callErr)
	assert.Nil(t, results)
}

func TestProcessSlidesLengthMismatch(t *testing.T) {
	list, images := slides(3)
	client := new(MockVisionClient)

	_, err := NewOCRProcessor(client, nil, 2).ProcessSlides(context.Background(), list, images[:2])
	assert.Error(t, err)
	client.AssertNotCalled(t, "AnalyzeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSlidesCancelled(t *testing.T) {
	list, images := slides(3)
	client := new(MockVisionClient)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOCRProcessor(client, nil, 2).ProcessSlides(ctx, list, images)
	assert.ErrorIs(t, err, context.Canceled)
	client.AssertNotCalled(t, "AnalyzeImage", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessSlidesEmpty(t *testing.T) {
	results, err := NewOCRProcessor(new(MockVisionClient), nil, 0).ProcessSlides(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
