package logger

import (
	"ginvault/pkg/config"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	Logger *logrus.Logger
	mu     sync.RWMutex
)

// Initialize 初始化日志
func Initialize(cfg *config.Config) error {
	l := logrus.New()

	// 设置日志等级
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	// 设置日志格式
	if cfg.Log.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	if cfg.Log.FilePath != "" {
		logDir := filepath.Dir(cfg.Log.FilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return err
		}

		// 配置日志轮转
		rotateLogger := &lumberjack.Logger{
			Filename:   cfg.Log.FilePath,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		}

		// 同时输出到文件和控制台
		l.SetOutput(io.MultiWriter(os.Stdout, rotateLogger))
	}

	mu.Lock()
	Logger = l
	mu.Unlock()
	return nil
}

// GetLogger 获取日志实例，未初始化时返回输出到标准输出的默认实例
func GetLogger() *logrus.Logger {
	mu.RLock()
	l := Logger
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if Logger == nil {
		Logger = logrus.New()
	}
	return Logger
}

// SetLogger 替换全局日志实例（测试中用于静默输出）
func SetLogger(l *logrus.Logger) {
	mu.Lock()
	Logger = l
	mu.Unlock()
}
