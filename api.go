package gmux

import (
	"net"
	"time"

	"github.com/rs/zerolog"
)

// Dialer 抽象 TCP 建连，便于测试替换
type Dialer interface {
	DialTimeout(network, address string, timeout time.Duration) (net.Conn, error)
}

// NetDialer 使用标准库 net 包建连
type NetDialer struct{}

// DialTimeout timeout 为 0 时不设上限，由系统决定
func (NetDialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(network, address, timeout)
}

// Config 为 Manager 配置
type Config struct {
	Logger      zerolog.Logger   // 默认 zerolog.Nop()，库内不做全局日志初始化
	Dialer      Dialer           // 默认 NetDialer
	DialTimeout time.Duration    // 建连阻塞上限，0 表示不限制
	Now         func() time.Time // 时钟，测试可注入
}

// DefaultConfig 提供一组可工作的默认值
func DefaultConfig() Config {
	return Config{
		Logger:      zerolog.Nop(),
		Dialer:      NetDialer{},
		DialTimeout: 0,
		Now:         time.Now,
	}
}
