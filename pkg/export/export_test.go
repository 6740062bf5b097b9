package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/lecture-processor/pkg/models"
)

func sampleTranscript() models.TranscriptResult {
	return models.TranscriptResult{
		FullText: "첫 문장 두 번째",
		Segments: []models.TranscriptSegment{
			{Start: 1.0, End: models.At(2.5), Text: "첫 문장"},
			{Start: 3.0, End: models.At(3.0), Text: "두 번째"},
			{Start: 4.0, End: models.At(5.0), Text: "   "},
		},
		Language: "ko-KR",
		Duration: models.At(5.0),
	}
}

func TestGenerateSRTContent(t *testing.T) {
	e := NewSRTExporter("")
	content := e.GenerateSRTContent(sampleTranscript().Segments)

	expected := strings.Join([]string{
		"1",
		"00:00:01,000 --> 00:00:02,500",
		"첫 문장",
		"",
		"2",
		"00:00:03,000 --> 00:00:08,000",
		"두 번째",
		"",
	}, "\n")
	assert.Equal(t, expected, content)
}

func TestGenerateSRTContentUnboundedEnd(t *testing.T) {
	e := NewSRTExporter("")
	content := e.GenerateSRTContent([]models.TranscriptSegment{
		{Start: 0, End: models.Unbounded(), Text: "전체 텍스트"},
	})

	assert.Contains(t, content, "00:00:00,000 --> 00:00:05,000")
	assert.Contains(t, content, "전체 텍스트")
}

func TestExportSRTAndJSON(t *testing.T) {
	dir := t.TempDir()
	result := sampleTranscript()

	srtPath, err := NewSRTExporter(dir).ExportSRT(result.Segments, "/media/lecture01.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lecture01.wav.srt"), srtPath)

	jsonPath, err := NewJSONExporter(dir).ExportTranscript(result, "/media/lecture01.wav")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lecture01.wav.transcript.json"), jsonPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded models.TranscriptResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, result, decoded)
}

func TestExportSlidesEmpty(t *testing.T) {
	dir := t.TempDir()
	path, err := NewJSONExporter(dir).ExportSlides(nil, "lecture01")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestGenerateMarkdown(t *testing.T) {
	e := NewMarkdownExporter("", true)
	transcript := models.TranscriptResult{
		FullText: "설명 전체",
		Segments: []models.TranscriptSegment{
			{Start: 0, End: models.Unbounded(), Text: "설명 전체"},
		},
	}
	slides := []models.OCRResult{
		{SlideNumber: 1, Title: "적분", StructuredMarkdown: "# 적분\n\n$$\\int_0^1 x dx$$\n"},
	}

	md := e.GenerateMarkdown("lecture01", &transcript, slides)

	assert.True(t, strings.HasPrefix(md, "# lecture01\n"))
	assert.Contains(t, md, "### Slide 1 - 적분")
	assert.Contains(t, md, "$$\\int_0^1 x dx$$")
	assert.Contains(t, md, "[00:00-…] 설명 전체")
	assert.True(t, strings.HasSuffix(md, "\n"))
}

func TestExportMarkdownWithoutTranscript(t *testing.T) {
	dir := t.TempDir()
	path, err := NewMarkdownExporter(dir, false).ExportMarkdown("deck.pdf", ".notes", nil, []models.OCRResult{
		{SlideNumber: 2, StructuredMarkdown: "내용"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "deck.pdf.notes.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### Slide 2\n\n내용")
	assert.NotContains(t, string(data), "## Transcript")
}

func TestExportNamesKeepMediaExtension(t *testing.T) {
	dir := t.TempDir()
	result := sampleTranscript()
	jsonExp := NewJSONExporter(dir)
	srtExp := NewSRTExporter(dir)

	for _, media := range []string{"/media/talk.mp3", "/media/talk.mp4"} {
		_, err := jsonExp.ExportTranscript(result, media)
		require.NoError(t, err)
		_, err = srtExp.ExportSRT(result.Segments, media)
		require.NoError(t, err)
	}

	for _, name := range []string{
		"talk.mp3.transcript.json", "talk.mp4.transcript.json",
		"talk.mp3.srt", "talk.mp4.srt",
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestExportMarkdownDottedNames(t *testing.T) {
	dir := t.TempDir()
	e := NewMarkdownExporter(dir, false)
	transcript := sampleTranscript()

	mdPath, err := e.ExportMarkdown("Lecture 3.wav", "", &transcript, nil)
	require.NoError(t, err)
	notesPath, err := e.ExportMarkdown("Lecture 3.1.wav", ".notes", &transcript, []models.OCRResult{
		{SlideNumber: 1, StructuredMarkdown: "슬라이드"},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "Lecture 3.wav.md"), mdPath)
	assert.Equal(t, filepath.Join(dir, "Lecture 3.1.wav.notes.md"), notesPath)

	data, err := os.ReadFile(notesPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Lecture 3.1\n"))

	data, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "## Slides")
}
