// course-sync 本地学习进度代理：保存课程进度与证书，并与课程后端双向同步。

package main

import (
	"course_sync/internal/app"
	"course_sync/internal/config"
	"course_sync/pkg/logger"
	"flag"
	"log"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件所在目录")
	syncNow := flag.Bool("sync-now", false, "执行一次全量同步后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.SyncOnly = *syncNow

	application := app.NewApp(cfg)
	application.ConfigDir = *configDir
	defer logger.Log.Sync()

	if cfg.SyncOnly {
		report, err := application.SyncOnce()
		if err != nil {
			logger.Log.Error("Sync finished with errors", zap.Error(err))
		}
		if report != nil && report.Skipped {
			log.Println("没有登录用户，跳过同步")
		}
		application.Shutdown(nil)
		return
	}

	application.Run()
}
