// Package logging 在进程入口处一次性初始化 zerolog。
// 库代码不调用本包，日志器通过 gmux.Config 显式注入。
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel 将级别字符串转换为 zerolog.Level，未知值按 INFO 处理
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

var (
	once sync.Once
	base zerolog.Logger
)

// Init 只在首次调用时生效，后续调用返回同一个日志器
func Init(level, format string) zerolog.Logger {
	once.Do(func() {
		base = New(os.Stdout, level, format)
		zerolog.SetGlobalLevel(ParseLevel(level))
	})
	return base
}

// New 构造写入 w 的日志器；format 为 "console" 时使用可读格式，否则 JSON
func New(w io.Writer, level, format string) zerolog.Logger {
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}
