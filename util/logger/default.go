package logger

import "go.uber.org/zap"

var (
	defaultLogger = wrap(NewLogger("partman", zap.DebugLevel))
)

// wrap 跳过本文件的包装函数, 使日志中的 caller 指向真实调用方.
func wrap(l *zap.SugaredLogger) *zap.SugaredLogger {
	return l.Desugar().WithOptions(zap.AddCallerSkip(1)).Sugar()
}

func SetupDefaultLogger(l *zap.SugaredLogger) {
	defaultLogger = wrap(l)
}

// Default 返回当前默认日志器, 供需要显式传入日志器的组件使用.
func Default() *zap.SugaredLogger {
	return defaultLogger.Desugar().WithOptions(zap.AddCallerSkip(-1)).Sugar()
}

func Sync() {
	_ = defaultLogger.Sync()
}

func Debugf(template string, args ...interface{}) {
	defaultLogger.Debugf(template, args...)
}

func Info(args ...interface{}) {
	defaultLogger.Info(args...)
}

func Infof(template string, args ...interface{}) {
	defaultLogger.Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	defaultLogger.Warnf(template, args...)
}

func Error(args ...interface{}) {
	defaultLogger.Error(args...)
}

func Errorf(template string, args ...interface{}) {
	defaultLogger.Errorf(template, args...)
}

func Fatalf(template string, args ...interface{}) {
	defaultLogger.Fatalf(template, args...)
}
