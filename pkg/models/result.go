package models

// Report 一次处理任务的统计信息
type Report struct {
	TaskID        string            `json:"task_id"`
	FilePath      string            `json:"file_path"`
	Service       string            `json:"service"`      // 使用的识别服务
	OutputFiles   map[string]string `json:"output_files"` // 格式 -> 输出文件路径
	SegmentCount  int               `json:"segment_count"`
	SlideCount    int               `json:"slide_count"`
	Duration      TimeBound         `json:"duration_sec"`
	ProcessTimeMs int64             `json:"process_time_ms"`
}
