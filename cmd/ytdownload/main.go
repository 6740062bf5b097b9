package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// 按名称生成文件时使用 "标题 [ID].mp4"
const nameTemplate = "%(title)s [%(id)s].%(ext)s"

type options struct {
	URL string
	Out string
}

// parseArgs 解析参数，允许 -o 出现在URL之后
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("ytdownload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Out, "o", ".", "输出路径：带扩展名时作为文件名，否则作为目录")
	fs.StringVar(&opts.Out, "out", ".", "同 -o")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "用法: ytdownload <视频URL> [-o 输出路径]")
		fs.PrintDefaults()
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return opts, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	if len(positional) != 1 {
		fs.Usage()
		return opts, errors.New("需要且只需要一个视频URL")
	}
	opts.URL = positional[0]
	return opts, nil
}

// buildCommand 生成 yt-dlp 参数并创建输出目录
func buildCommand(opts options) ([]string, error) {
	outPath, err := filepath.Abs(opts.Out)
	if err != nil {
		return nil, fmt.Errorf("解析输出路径失败: %w", err)
	}

	cmd := []string{
		"yt-dlp",
		opts.URL,
		"-f", "bv*+ba/b",
		"--merge-output-format", "mp4",
		"--remux-video", "mp4", // 单个流也强制封装为mp4
	}

	if filepath.Ext(outPath) != "" {
		if err := utils.EnsureDirExists(filepath.Dir(outPath)); err != nil {
			return nil, err
		}
		return append(cmd, "-o", outPath), nil
	}

	if err := utils.EnsureDirExists(outPath); err != nil {
		return nil, err
	}
	return append(cmd, "-o", filepath.Join(outPath, nameTemplate)), nil
}

// run 执行命令并返回退出码
func run(argv []string, stdout io.Writer) int {
	fmt.Fprintln(stdout, strings.Join(argv, " "))

	cmd := exec.Command(argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	stdout.Write(out)

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		color.Red("执行 %s 失败: %v", argv[0], err)
		return 1
	}
	return 0
}

func main() {
	opts, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		color.Red("%v", err)
		os.Exit(2)
	}

	argv, err := buildCommand(opts)
	if err != nil {
		color.Red("%v", err)
		os.Exit(1)
	}

	if code := run(argv, os.Stdout); code != 0 {
		os.Exit(code)
	}
	color.Green("下载完成")
}
