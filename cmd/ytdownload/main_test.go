package main

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"https://youtu.be/abc", "-o", "videos"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, options{URL: "https://youtu.be/abc", Out: "videos"}, opts)

	opts, err = parseArgs([]string{"--out", "a.mp4", "https://youtu.be/abc"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", opts.Out)

	opts, err = parseArgs([]string{"https://youtu.be/abc"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, ".", opts.Out)

	_, err = parseArgs(nil, io.Discard)
	assert.Error(t, err)

	_, err = parseArgs([]string{"u1", "u2"}, io.Discard)
	assert.Error(t, err)
}

func TestBuildCommandDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads")

	argv, err := buildCommand(options{URL: "https://youtu.be/abc", Out: dir})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"yt-dlp", "https://youtu.be/abc",
		"-f", "bv*+ba/b",
		"--merge-output-format", "mp4",
		"--remux-video", "mp4",
		"-o", filepath.Join(dir, "%(title)s [%(id)s].%(ext)s"),
	}, argv)
	assert.DirExists(t, dir)
}

func TestBuildCommandFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "lecture.mp4")

	argv, err := buildCommand(options{URL: "u", Out: out})
	require.NoError(t, err)

	assert.Equal(t, out, argv[len(argv)-1])
	assert.DirExists(t, filepath.Dir(out))
}

func TestRunExitCode(t *testing.T) {
	assert.Equal(t, 0, run([]string{"true"}, io.Discard))
	assert.Equal(t, 3, run([]string{"sh", "-c", "exit 3"}, io.Discard))
	assert.Equal(t, 1, run([]string{"definitely-not-a-real-binary-xyz"}, io.Discard))
}
