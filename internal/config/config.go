// Package config 解析示例宿主的配置。
// 优先级：命令行 > 环境变量 > YAML 文件 > 默认值。
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Timer 描述一个待注册的定时器
type Timer struct {
	Interval time.Duration `yaml:"interval"`
	Once     bool          `yaml:"once"`
	Data     uint32        `yaml:"data"`
}

// Target 描述一个出站 TCP 目标
type Target struct {
	Host string `yaml:"host"`
	Port uint16 `yaml:"port"`
}

// Config 为合并各层来源后的宿主配置
type Config struct {
	LogLevel          string        `yaml:"log_level"`
	LogFormat         string        `yaml:"log_format"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	DialTimeout       time.Duration `yaml:"dial_timeout"`
	MetricsAddr       string        `yaml:"metrics_addr"`
	CompressThreshold int           `yaml:"compress_threshold"`
	Timers            []Timer       `yaml:"timers"`
	Targets           []Target      `yaml:"targets"`
}

// Default 与原始示例程序一致：1s/2s 周期定时器、5s 一次性定时器、localhost:1234
func Default() *Config {
	return &Config{
		LogLevel:          "INFO",
		LogFormat:         "console",
		PollInterval:      50 * time.Millisecond,
		CompressThreshold: 1024,
		Timers: []Timer{
			{Interval: time.Second, Data: 1},
			{Interval: 2 * time.Second, Data: 2},
			{Interval: 5 * time.Second, Once: true, Data: 5},
		},
		Targets: []Target{{Host: "localhost", Port: 1234}},
	}
}

// LoadFile 读取 YAML 并展开 ${VAR}，缺省字段保留 Default 的值
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

// Load 解析 args（不含程序名），应用各层覆盖并校验
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("gmux", flag.ContinueOnError)
	var (
		flagConfig       = fs.String("config", "", "YAML config file (env: GMUX_CONFIG)")
		flagLogLevel     = fs.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (env: GMUX_LOG_LEVEL)")
		flagLogFormat    = fs.String("log-format", "", "Log format: json, console (env: GMUX_LOG_FORMAT)")
		flagPollInterval = fs.String("poll-interval", "", "Tick interval of the poll loop (env: GMUX_POLL_INTERVAL)")
		flagDialTimeout  = fs.String("dial-timeout", "", "Upper bound of a blocking connect, 0 = none (env: GMUX_DIAL_TIMEOUT)")
		flagMetricsAddr  = fs.String("metrics-addr", "", "Listen address for /metrics, empty = disabled (env: GMUX_METRICS_ADDR)")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if path := resolveString(*flagConfig, "GMUX_CONFIG", ""); path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.LogLevel = resolveString(*flagLogLevel, "GMUX_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = resolveString(*flagLogFormat, "GMUX_LOG_FORMAT", cfg.LogFormat)
	cfg.PollInterval = resolveDuration(*flagPollInterval, "GMUX_POLL_INTERVAL", cfg.PollInterval)
	cfg.DialTimeout = resolveDuration(*flagDialTimeout, "GMUX_DIAL_TIMEOUT", cfg.DialTimeout)
	cfg.MetricsAddr = resolveString(*flagMetricsAddr, "GMUX_METRICS_ADDR", cfg.MetricsAddr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate 检查必填项与取值范围
func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("poll_interval must be positive"))
	}
	if c.DialTimeout < 0 {
		errs = append(errs, errors.New("dial_timeout must not be negative"))
	}
	for i, t := range c.Timers {
		if t.Interval < 0 {
			errs = append(errs, fmt.Errorf("timers[%d]: interval must not be negative", i))
		}
	}
	for i, t := range c.Targets {
		if t.Host == "" || t.Port == 0 {
			errs = append(errs, fmt.Errorf("targets[%d]: host and port are required", i))
		}
	}
	return errors.Join(errs...)
}

// resolveString 依次取 flag、环境变量、fallback 中第一个非空值
func resolveString(flagVal, env, fallback string) string {
	if flagVal != "" {
		return flagVal
	}
	if val := os.Getenv(env); val != "" {
		return val
	}
	return fallback
}

func resolveDuration(flagVal, env string, fallback time.Duration) time.Duration {
	val := resolveString(flagVal, env, "")
	if val == "" {
		return fallback
	}
	return parseDuration(val, fallback)
}

// parseDuration 同时支持 "10s" 与纯秒数 "10"
func parseDuration(val string, fallback time.Duration) time.Duration {
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return fallback
}
