// Package log 是客户端、开发后端共用的 zap 日志入口。
// 日志只用于诊断：对话内容走标准输出，日志走 stderr 或文件，且从不记录 token 和密码。
package log

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 服务在测试里直接构造，不会调用 Init，此时日志被丢弃。
var sugar = zap.NewNop().Sugar()

// Init 按 log 配置段构建 logger，由 CLI 和开发后端在启动时调用一次。
// console 格式给人看，其余格式输出 JSON 便于收集。
func Init(level, format, outputPath string) {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	var zapConfig zap.Config
	if format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.Encoding = "console"
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Encoding = "json"
	}
	zapConfig.Level = logLevel

	zapConfig.OutputPaths = []string{"stderr"}
	if outputPath != "" {
		_ = os.MkdirAll(outputPath, os.ModePerm)
		zapConfig.OutputPaths = []string{filepath.Join(outputPath, "client.log")}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	sugar = logger.Sugar()
}

// Debugf 用于会话恢复、存储打开等 --verbose 才关心的细节。
func Debugf(template string, args ...interface{}) {
	sugar.Debugf(template, args...)
}

// Info 记录启动、停机这类一次性事件。
func Info(msg string) {
	sugar.Info(msg)
}

// Infof 记录登录、登出等会话迁移。
func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

// Infow 记录开发后端的请求日志，字段以键值对给出。
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

// Warnf 记录可以继续运行的失败，例如欢迎语降级或后端注销失败。
func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

// Warnw 是带键值对的 Warnf。
func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}

// Error 记录失败的操作和导致失败的 error。
func Error(msg string, err error) {
	sugar.Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

// Fatal 用于启动阶段无法继续的错误，记录后退出进程。
func Fatal(msg string, err error) {
	sugar.Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugar.Fatalf(template, args...)
}

// Sync 在命令结束或进程退出前刷新日志。
func Sync() {
	_ = sugar.Sync()
}
