// Package netutil 封装 poll 线程使用的单次非阻塞 socket 操作。
// 所有函数通过 syscall.RawConn 执行恰好一次系统调用，不等待就绪。
package netutil

import (
	"errors"
	"net"
	"syscall"
)

// ErrNoRawConn 连接不支持 SyscallConn（例如 net.Pipe）
var ErrNoRawConn = errors.New("netutil: connection does not expose a raw fd")

// RawConn 从 net.Conn 中取出 syscall.RawConn
func RawConn(c net.Conn) (syscall.RawConn, error) {
	sc, ok := c.(syscall.Conn)
	if !ok {
		return nil, ErrNoRawConn
	}
	return sc.SyscallConn()
}
