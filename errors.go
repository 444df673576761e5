package gmux

import "errors"

var (
	// ErrInvalidArgument 参数非法
	ErrInvalidArgument = errors.New("gmux: invalid argument")

	// ErrClosed Manager 已关闭
	ErrClosed = errors.New("gmux: manager closed")

	// ErrTCPConnection 建连或设置非阻塞失败，连接随即被移除
	ErrTCPConnection = errors.New("gmux: tcp connection error")

	// ErrTCPWrite 一次 Send 未能写完全部字节，连接保留
	ErrTCPWrite = errors.New("gmux: tcp write error")
)
