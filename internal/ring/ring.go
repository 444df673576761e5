// Package ring 提供单生产者单消费者的字节环，调用方负责并发控制。
package ring

import "errors"

var ErrTooLarge = errors.New("ring: write too large")

// Buffer 容量恒为 2 的幂，读写位置单调递增，用 mask 取模
type Buffer struct {
	buf   []byte
	mask  int
	r, w  int
	limit int // Grow 的容量上限
}

// New 返回容量不小于 capacity 的环；limit 为扩容上限，不大于初始容量时禁止扩容
func New(capacity, limit int) *Buffer {
	n := pow2(capacity)
	return &Buffer{buf: make([]byte, n), mask: n - 1, limit: limit}
}

func pow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (b *Buffer) Cap() int  { return len(b.buf) }
func (b *Buffer) Len() int  { return b.w - b.r }
func (b *Buffer) Free() int { return b.Cap() - b.Len() }

// Reset 丢弃全部未读数据
func (b *Buffer) Reset() { b.r, b.w = 0, 0 }

// Write 整体写入 p；空间不足时先尝试扩容，仍不足则返回 ErrTooLarge 且不写入
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) > b.Free() && !b.grow(b.Len()+len(p)) {
		return 0, ErrTooLarge
	}
	start := b.w & b.mask
	n := copy(b.buf[start:], p)
	copy(b.buf, p[n:])
	b.w += len(p)
	return len(p), nil
}

func (b *Buffer) grow(need int) bool {
	n := pow2(need)
	if n > b.limit {
		return false
	}
	nb := make([]byte, n)
	ln := b.Len()
	copy(nb, b.Peek(ln))
	b.buf, b.mask = nb, n-1
	b.r, b.w = 0, ln
	return true
}

// Peek 返回最多 n 字节且不前进读位置；跨越边界时返回拷贝
func (b *Buffer) Peek(n int) []byte {
	if n > b.Len() {
		n = b.Len()
	}
	if n <= 0 {
		return nil
	}
	start := b.r & b.mask
	if start+n <= len(b.buf) {
		return b.buf[start : start+n]
	}
	out := make([]byte, n)
	k := copy(out, b.buf[start:])
	copy(out[k:], b.buf)
	return out
}

// Discard 前进读位置，返回实际丢弃的字节数
func (b *Buffer) Discard(n int) int {
	if n > b.Len() {
		n = b.Len()
	}
	b.r += n
	if b.r == b.w {
		b.Reset()
	}
	return n
}
