// Package protocol 是宿主侧的可选分帧工具。gmux 核心只收发原始字节，
// 帧格式完全由宿主决定；本包提供示例程序使用的一种实现。
//
// 帧头固定 4 字节（BE）：
//
//	bit31:    Compressed（zstd）
//	bit30..0: 帧体长度
package protocol

import (
	"encoding/binary"
	"errors"
)

const (
	HeaderSize = 4
	MaxBodyLen = 1<<31 - 1

	flagCompressed = 1 << 31
)

var (
	ErrFrameTooLarge  = errors.New("protocol: frame too large")
	errHeaderTooShort = errors.New("protocol: header too short")
)

// AppendHeader 将帧头追加到 dst
func AppendHeader(dst []byte, length int, compressed bool) ([]byte, error) {
	if length < 0 || length > MaxBodyLen {
		return dst, ErrFrameTooLarge
	}
	v := uint32(length)
	if compressed {
		v |= flagCompressed
	}
	return binary.BigEndian.AppendUint32(dst, v), nil
}

// ParseHeader 解析帧头，返回帧体长度与压缩标记
func ParseHeader(b []byte) (length int, compressed bool, _ error) {
	if len(b) < HeaderSize {
		return 0, false, errHeaderTooShort
	}
	v := binary.BigEndian.Uint32(b[:HeaderSize])
	return int(v &^ flagCompressed), v&flagCompressed != 0, nil
}
