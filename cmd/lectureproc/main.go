package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/ccp-p/lecture-processor/internal/controller"
	"github.com/ccp-p/lecture-processor/pkg/audio"
	"github.com/ccp-p/lecture-processor/pkg/models"
	"github.com/ccp-p/lecture-processor/pkg/utils"
)

var (
	configFile = flag.String("config", "", "配置文件路径 (.json/.yaml)")
	mediaDir   = flag.String("media", "", "媒体文件夹，覆盖配置")
	slidesDir  = flag.String("slides", "", "幻灯片文件夹，覆盖配置")
	outputDir  = flag.String("output", "", "输出目录，覆盖配置")
	inputFile  = flag.String("file", "", "只处理单个媒体文件")
	watchMode  = flag.Bool("watch", false, "处理完成后继续监控媒体文件夹")
	logLevel   = flag.String("log-level", "", "日志级别 (debug, info, warn, error)")
	logFile    = flag.String("log-file", "", "日志文件路径")
)

func main() {
	flag.Parse()

	config := loadConfig()

	if err := utils.InitLogger(config.LogLevel, config.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	printWelcome()
	config.PrintConfig()

	if !checkDependencies() {
		os.Exit(1)
	}

	pc, err := controller.NewProcessorController(config)
	if err != nil {
		color.Red("初始化失败: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runPipeline(ctx, pc); err != nil {
		utils.Error("%v", err)
		pc.PrintStats()
		os.Exit(1)
	}

	pc.PrintStats()
}

func runPipeline(ctx context.Context, pc *controller.ProcessorController) error {
	if *inputFile != "" {
		report, err := pc.ProcessFile(ctx, *inputFile)
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	}

	if pc.Config.WatchMode {
		return pc.StartWatchMode(ctx)
	}

	reports, err := pc.ProcessAll(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		utils.Info("没有找到可处理的媒体文件")
	}
	for i := range reports {
		printReport(&reports[i])
	}
	return nil
}

func printReport(r *models.Report) {
	color.Green("\n%s", r.FilePath)
	fmt.Printf("  任务ID: %s\n", r.TaskID)
	fmt.Printf("  识别服务: %s, 分段: %d, 幻灯片: %d, 时长: %s\n",
		r.Service, r.SegmentCount, r.SlideCount, r.Duration)
	for kind, path := range r.OutputFiles {
		fmt.Printf("  - %s: %s\n", kind, path)
	}
}

func printWelcome() {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("      讲座转写与幻灯片整理      ")
	color.Cyan("================================")
	fmt.Println()
}

func checkDependencies() bool {
	fmt.Print("检查系统依赖... ")

	if err := audio.CheckFFmpeg(); err != nil {
		color.Red("失败")
		utils.Error("%v", err)
		return false
	}

	color.Green("通过")
	return true
}

func loadConfig() *models.Config {
	config := models.NewDefaultConfig()

	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			color.Yellow("警告: 加载配置文件失败: %v，将使用默认配置", err)
		}
	}

	// 命令行参数优先于配置文件
	if *mediaDir != "" {
		config.MediaFolder = *mediaDir
	}
	if *slidesDir != "" {
		config.SlidesFolder = *slidesDir
	}
	if *outputDir != "" {
		config.OutputFolder = *outputDir
	}
	if *watchMode {
		config.WatchMode = true
	}
	if *logLevel != "" {
		config.LogLevel = *logLevel
	}
	if *logFile != "" {
		config.LogFile = *logFile
	}

	return config
}
