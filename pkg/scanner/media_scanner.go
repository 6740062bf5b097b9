package scanner

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

// MediaFile 表示一个媒体文件
type MediaFile struct {
	Path      string    // 文件路径
	Name      string    // 文件名
	Ext       string    // 文件扩展名
	Size      int64     // 文件大小（字节）
	ModTime   time.Time // 修改时间
	IsVideo   bool      // 是否为视频文件
	IsAudio   bool      // 是否为音频文件
}

// MediaScanner 用于扫描讲座录音/录像和幻灯片图片
type MediaScanner struct {
	AudioExtensions []string
	VideoExtensions []string
	ImageExtensions []string
}

// NewMediaScanner 创建新的媒体扫描器
func NewMediaScanner() *MediaScanner {
	return &MediaScanner{
		AudioExtensions: []string{".mp3", ".wav", ".m4a", ".flac", ".ogg", ".aac"},
		VideoExtensions: []string{".mp4", ".mov", ".avi", ".mkv", ".wmv", ".webm"},
		ImageExtensions: []string{".png", ".jpg", ".jpeg", ".webp"},
	}
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if e == ext {
			return true
		}
	}
	return false
}

// IsMediaFile 判断路径是否为支持的音频或视频
func (s *MediaScanner) IsMediaFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return hasExt(s.AudioExtensions, ext) || hasExt(s.VideoExtensions, ext)
}

// IsImageFile 判断路径是否为支持的幻灯片图片
func (s *MediaScanner) IsImageFile(path string) bool {
	return hasExt(s.ImageExtensions, strings.ToLower(filepath.Ext(path)))
}

// visibleFiles 读取目录中的非隐藏文件（非递归）
func visibleFiles(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := entries[:0]
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		files = append(files, entry)
	}
	return files, nil
}

// ScanDirectory 扫描指定目录中的媒体文件
func (s *MediaScanner) ScanDirectory(dir string) ([]MediaFile, error) {
	var mediaFiles []MediaFile

	utils.Info("开始扫描目录: %s", dir)

	entries, err := visibleFiles(dir)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			utils.Warn("获取文件信息失败: %v", err)
			continue
		}

		path := filepath.Join(dir, entry.Name())
		ext := strings.ToLower(filepath.Ext(path))
		isAudio := hasExt(s.AudioExtensions, ext)
		isVideo := hasExt(s.VideoExtensions, ext)

		if isAudio || isVideo {
			mediaFiles = append(mediaFiles, MediaFile{
				Path:    path,
				Name:    entry.Name(),
				Ext:     ext,
				Size:    info.Size(),
				ModTime: info.ModTime(),
				IsVideo: isVideo,
				IsAudio: isAudio,
			})
		}
	}

	utils.Info("扫描完成，共找到 %d 个媒体文件", len(mediaFiles))

	return mediaFiles, nil
}

var slideNumberRe = regexp.MustCompile(`\d+`)

// slideOrder 返回文件名中的第一个数字，没有数字时返回-1
func slideOrder(name string) int {
	m := slideNumberRe.FindString(utils.BaseName(name))
	if m == "" {
		return -1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return -1
	}
	return n
}

// ScanSlides 扫描幻灯片图片，按文件名中的数字排序并从1开始编号
//
// 文件名不含数字的图片排在最后，按文件名排序。
func (s *MediaScanner) ScanSlides(dir string) ([]models.DetectedSlide, error) {
	entries, err := visibleFiles(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if s.IsImageFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		a, b := slideOrder(names[i]), slideOrder(names[j])
		switch {
		case a < 0 && b < 0:
			return names[i] < names[j]
		case a < 0:
			return false
		case b < 0:
			return true
		case a != b:
			return a < b
		}
		return names[i] < names[j]
	})

	slides := make([]models.DetectedSlide, 0, len(names))
	for i, name := range names {
		slides = append(slides, models.DetectedSlide{
			SlideNumber: i + 1,
			ImagePath:   filepath.Join(dir, name),
		})
	}

	utils.Info("在 %s 中找到 %d 张幻灯片", dir, len(slides))
	return slides, nil
}

// FilterNewFiles 根据已处理记录过滤出新文件
func (s *MediaScanner) FilterNewFiles(files []MediaFile, processedPaths map[string]bool) []MediaFile {
	var newFiles []MediaFile

	for _, file := range files {
		if !processedPaths[file.Path] {
			newFiles = append(newFiles, file)
		}
	}

	utils.Info("过滤后剩余 %d 个新文件需要处理", len(newFiles))

	return newFiles
}
