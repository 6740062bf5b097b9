package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccp-p/lecture-processor/pkg/models"
)

func newClient(t *testing.T) *LocalClient {
	t.Helper()
	c, err := NewLocalClient(filepath.Join(t.TempDir(), "storage"), "http://localhost:8000/files/")
	require.NoError(t, err)
	return c
}

func TestNewLocalClient(t *testing.T) {
	c := newClient(t)
	assert.Equal(t, "http://localhost:8000/files", c.BaseURL)

	info, err := os.Stat(c.Root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestUploadDownloadDelete(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	key := "videos/task-1/original.mp4"

	url, err := c.Upload(ctx, key, []byte("data"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/files/videos/task-1/original.mp4", url)

	exists, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := c.Download(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	require.NoError(t, c.Delete(ctx, key))
	exists, _ = c.Exists(ctx, key)
	assert.False(t, exists)

	// 重复删除不报错
	assert.NoError(t, c.Delete(ctx, key))

	_, err = c.Download(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPresignedURLs(t *testing.T) {
	c := newClient(t)
	assert.Equal(t, "http://localhost:8000/files/a/b.png", c.PresignedUploadURL("a\\b.png", "image/png"))
	assert.Equal(t, "http://localhost:8000/files/a/b.png", c.PresignedDownloadURL("a/b.png"))
}

func TestCancelledContext(t *testing.T) {
	c := newClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Upload(ctx, "x", nil, "")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = c.Download(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveResults(t *testing.T) {
	ctx := context.Background()
	c := newClient(t)
	taskID := NewTaskID()
	_, err := uuid.Parse(taskID)
	require.NoError(t, err)

	transcript := models.TranscriptResult{
		FullText: "안녕",
		Segments: []models.TranscriptSegment{{Start: 0, End: models.Unbounded(), Text: "안녕"}},
		Language: "ko-KR",
		Duration: models.Unbounded(),
	}
	url, err := c.SaveTranscript(ctx, taskID, transcript)
	require.NoError(t, err)
	assert.Equal(t, c.BaseURL+"/transcripts/"+taskID+"/transcript.json", url)

	data, err := c.Download(ctx, "transcripts/"+taskID+"/transcript.json")
	require.NoError(t, err)
	var loaded models.TranscriptResult
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, transcript, loaded)

	_, err = c.SaveOCRResults(ctx, taskID, nil)
	require.NoError(t, err)
	data, err = c.Download(ctx, "slides/"+taskID+"/ocr.json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))

	_, err = c.SaveReport(ctx, models.Report{TaskID: taskID, Duration: models.At(1.5)})
	require.NoError(t, err)
	exists, _ := c.Exists(ctx, "reports/"+taskID+"/report.json")
	assert.True(t, exists)
}
