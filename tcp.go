package gmux

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/legamerdc/gmux/internal/netutil"
)

// handleTCP 推进 TCP 子状态机。仅建连失败时返回 true。
func (c *Conn) handleTCP(d Dialer, timeout time.Duration) (expired bool) {
	t := c.tcp
	if t.sock == nil {
		return c.connect(d, timeout)
	}
	switch t.state {
	case StateWriteError:
		// 不自动移除，由宿主决定是否 CloseNow
		c.emit(EventSend, StatusTCPWriteError)
	case StateSent:
		// 先切换状态，回调内再次 Send 不会被覆盖
		t.state = StateWaitForData
		c.emit(EventSend, StatusOK)
	case StateWaitForData:
		if c.readReady() {
			c.emit(EventRecv, StatusOK)
		}
	}
	return false
}

// connect 阻塞建连，整个 poll 循环在此期间停顿
func (c *Conn) connect(d Dialer, timeout time.Duration) bool {
	addr := c.Addr()
	nc, err := d.DialTimeout("tcp", addr, timeout)
	if err == nil {
		if err = c.attach(nc); err != nil {
			_ = nc.Close()
		}
	}
	if err != nil {
		c.log.Debug().Err(err).Str("addr", addr).Msg("connect failed")
		c.emit(EventConnect, StatusTCPConnectionError)
		return true
	}
	c.log.Debug().Str("addr", addr).Msg("connected")
	c.emit(EventConnect, StatusOK)
	return false
}

func (c *Conn) attach(nc net.Conn) error {
	rc, err := netutil.RawConn(nc)
	if err != nil {
		return err
	}
	if err := netutil.SetNonblock(rc, true); err != nil {
		return fmt.Errorf("set nonblock: %w", err)
	}
	if err := netutil.SetNoDelay(rc, true); err != nil {
		c.log.Debug().Err(err).Msg("set nodelay")
	}
	c.tcp.sock = nc
	c.tcp.raw = rc
	return nil
}

// readReady 仅在有待读字节时返回 true。对端关闭不产生 Recv，只在首次发现时记录。
func (c *Conn) readReady() bool {
	ok, err := netutil.Peek(c.tcp.raw)
	if errors.Is(err, io.EOF) {
		if !c.tcp.eof {
			c.tcp.eof = true
			c.log.Debug().Str("addr", c.Addr()).Msg("peer closed")
		}
		return false
	}
	if err != nil {
		c.log.Error().Err(err).Msg("error reading from stream")
		return false
	}
	return ok
}

// Send 单次写入。全部字节被接受时状态为 StateSent，否则 StateWriteError。
// 无 socket 时无效果。
func (c *Conn) Send(p []byte) {
	if c.tcp == nil || c.tcp.raw == nil {
		return
	}
	n, err := netutil.Write(c.tcp.raw, p)
	if err == nil && n == len(p) {
		c.tcp.state = StateSent
		return
	}
	c.log.Debug().Err(err).Int("written", n).Int("len", len(p)).Msg("short write")
	c.tcp.state = StateWriteError
}

// Read 读取当前可用字节至 buf，返回读取数量。
// 出错或无 socket 时返回 0，与“暂无数据”不可区分。不改变状态。
// 对端关闭后不会再有 Recv 事件，连接停留在 StateWaitForData，
// 宿主需自行超时并调用 CloseNow。
func (c *Conn) Read(buf []byte) int {
	if c.tcp == nil || c.tcp.raw == nil {
		return 0
	}
	n, err := netutil.Drain(c.tcp.raw, buf)
	if err != nil && !errors.Is(err, io.EOF) {
		c.log.Debug().Err(err).Msg("read")
		return 0
	}
	return n
}
