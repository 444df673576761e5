//go:build linux || darwin

package netutil

import (
	"io"
	"syscall"

	"golang.org/x/sys/unix"
)

func SetNonblock(rc syscall.RawConn, nonblock bool) error {
	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = unix.SetNonblock(int(fd), nonblock)
	}); err != nil {
		return err
	}
	return serr
}

func SetNoDelay(rc syscall.RawConn, enable bool) error {
	v := 0
	if enable {
		v = 1
	}
	var serr error
	if err := rc.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, v)
	}); err != nil {
		return err
	}
	return serr
}

// Write 单次 write，返回内核接受的字节数
func Write(rc syscall.RawConn, p []byte) (int, error) {
	var n int
	var werr error
	if err := rc.Write(func(fd uintptr) bool {
		n, werr = unix.Write(int(fd), p)
		return true
	}); err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return n, werr
}

// Peek 探测接收队列是否有数据，不消费。EAGAIN 视为无数据，对端关闭返回 io.EOF。
func Peek(rc syscall.RawConn) (bool, error) {
	var b [1]byte
	var n int
	var perr error
	if err := rc.Read(func(fd uintptr) bool {
		n, _, perr = unix.Recvfrom(int(fd), b[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
		return true
	}); err != nil {
		return false, err
	}
	if perr != nil {
		if perr == unix.EAGAIN || perr == unix.EWOULDBLOCK {
			return false, nil
		}
		return false, perr
	}
	if n == 0 {
		return false, io.EOF
	}
	return true, nil
}

// Drain 读取至 p 填满或 EAGAIN；对端关闭时返回已读字节数与 io.EOF
func Drain(rc syscall.RawConn, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		var n int
		var rerr error
		if err := rc.Read(func(fd uintptr) bool {
			n, rerr = unix.Read(int(fd), p[total:])
			return true
		}); err != nil {
			return total, err
		}
		if rerr != nil {
			if rerr == unix.EAGAIN || rerr == unix.EWOULDBLOCK {
				return total, nil
			}
			return total, rerr
		}
		if n == 0 {
			return total, io.EOF
		}
		total += n
	}
	return total, nil
}
