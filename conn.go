package gmux

import (
	"fmt"
	"net"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// timerPart 仅定时器持有
type timerPart struct {
	fireAt   time.Time
	interval time.Duration
	once     bool
}

// tcpPart 仅 TCP 连接持有；sock 建连成功后设置，直至释放前不清空
type tcpPart struct {
	host  string
	port  uint16
	state State
	sock  net.Conn
	raw   syscall.RawConn
	eof   bool // 已观察到对端关闭
}

// Conn 表示一个可调度单元：定时器或 TCP 客户端连接。
// 由 Manager 独占持有，只在 poll 线程中被访问。
type Conn struct {
	id      uuid.UUID
	kind    Kind
	closing bool // CloseNow，终止标记
	closed  bool // Close 已通知

	timer *timerPart
	tcp   *tcpPart

	h    Handler
	data any
	log  zerolog.Logger
}

func newConn(kind Kind, h Handler, data any, log zerolog.Logger) *Conn {
	if h == nil {
		h = nopHandler{}
	}
	id := uuid.New()
	return &Conn{
		id:   id,
		kind: kind,
		h:    h,
		data: data,
		log:  log.With().Str("conn", id.String()).Str("kind", kind.String()).Logger(),
	}
}

func (c *Conn) ID() uuid.UUID { return c.id }

func (c *Conn) Kind() Kind { return c.kind }

// Closing 报告是否已调用 CloseNow
func (c *Conn) Closing() bool { return c.closing }

// State 返回 TCP 子状态；定时器恒为 StateStart
func (c *Conn) State() State {
	if c.tcp == nil {
		return StateStart
	}
	return c.tcp.state
}

// Addr 返回目标地址，定时器为空串
func (c *Conn) Addr() string {
	if c.tcp == nil {
		return ""
	}
	return net.JoinHostPort(c.tcp.host, strconv.Itoa(int(c.tcp.port)))
}

// Interval 返回定时器周期，TCP 连接为 0
func (c *Conn) Interval() time.Duration {
	if c.timer == nil {
		return 0
	}
	return c.timer.interval
}

func (c *Conn) String() string {
	return fmt.Sprintf("{ id: %s, interval: %g }", c.id, c.Interval().Seconds())
}

// CloseNow 请求移除；在 Manager 下次访问该连接时生效，不会同步触发 Close
func (c *Conn) CloseNow() { c.closing = true }

func (c *Conn) emit(ev Event, st Status) {
	c.log.Debug().Stringer("event", ev).Stringer("status", st).Msg("dispatch")
	c.h.OnEvent(c, ev, st, c.data)
}

// release 为显式的生命周期终点：恰好一次 Close 通知，随后关闭 socket
func (c *Conn) release() {
	if c.closed {
		return
	}
	c.closed = true
	c.emit(EventClose, StatusOK)
	if c.tcp != nil && c.tcp.sock != nil {
		if err := c.tcp.sock.Close(); err != nil {
			c.log.Debug().Err(err).Msg("socket close")
		}
	}
}
