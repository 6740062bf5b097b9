package asr

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/lecture-processor/pkg/models"
)

func TestProcessResults(t *testing.T) {
	config := models.NewDefaultConfig()
	config.OutputFolder = t.TempDir()

	result := AssembleTranscript([]Result{
		{Alternatives: []Alternative{alt("극한의 정의", Word{StartMs: 0, EndMs: 1500})}},
	}, config.Language)

	outputs, err := NewASRProcessor(config).ProcessResults(result, "/media/week1.wav")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(config.OutputFolder, "week1.wav.transcript.json"), outputs["json"])
	assert.Equal(t, filepath.Join(config.OutputFolder, "week1.wav.srt"), outputs["srt"])
	assert.Equal(t, filepath.Join(config.OutputFolder, "week1.wav.md"), outputs["md"])
	for _, path := range outputs {
		assert.FileExists(t, path)
	}
}

func TestProcessResultsEmptyTranscript(t *testing.T) {
	config := models.NewDefaultConfig()
	config.OutputFolder = t.TempDir()

	outputs, err := NewASRProcessor(config).ProcessResults(AssembleTranscript(nil, "ko-KR"), "silence.wav")
	require.NoError(t, err)

	assert.Contains(t, outputs, "json")
	assert.NotContains(t, outputs, "srt")
	assert.NotContains(t, outputs, "md")
}
