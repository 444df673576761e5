package gmux

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manager 持有连接注册表并驱动单线程 poll 循环。
// 除 Shared 之外的所有方法都只能在 poll 所在的 goroutine（或其回调）中调用。
type Manager struct {
	cfg     Config
	log     zerolog.Logger
	conns   []*Conn // 稠密存储，移除时与末尾交换
	expired []int

	ticking      bool // Tick 执行中，Close 推迟到本轮结束
	closePending bool
	closed       bool // Close 之后拒绝新注册
}

// NewManager 构造 Manager，未设置的字段取 DefaultConfig 的值
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.Dialer == nil {
		cfg.Dialer = def.Dialer
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	return &Manager{cfg: cfg, log: cfg.Logger}
}

// AddTimer 注册定时器，首次触发时间为 now+interval；注册时不回调。
// Manager 已关闭时不注册，返回 uuid.Nil。
func (m *Manager) AddTimer(once bool, interval time.Duration, h Handler, data any) uuid.UUID {
	if m.closed {
		return uuid.Nil
	}
	c := newConn(KindTimer, h, data, m.log)
	c.timer = &timerPart{
		fireAt:   m.cfg.Now().Add(interval),
		interval: interval,
		once:     once,
	}
	m.log.Debug().Str("conn", c.id.String()).Bool("once", once).Dur("interval", interval).Msg("adding timer")
	m.conns = append(m.conns, c)
	return c.id
}

// AddTCPConn 注册出站 TCP 连接。建连在下一个 tick 进行，注册本身不阻塞。
// Manager 已关闭时不注册，返回 uuid.Nil。
func (m *Manager) AddTCPConn(host string, port uint16, h Handler, data any) uuid.UUID {
	if m.closed {
		return uuid.Nil
	}
	c := newConn(KindTCP, h, data, m.log)
	c.tcp = &tcpPart{host: host, port: port, state: StateStart}
	m.log.Debug().Str("conn", c.id.String()).Str("addr", c.Addr()).Msg("adding tcp conn")
	m.conns = append(m.conns, c)
	return c.id
}

// Len 返回已注册连接数
func (m *Manager) Len() int { return len(m.conns) }

// Tick 执行一轮：按注册顺序访问每个连接，随后移除过期连接。
// 回调中新注册的连接从下一轮开始被访问。
// 回调中调用 Close 时，本轮照常完成，结束后再释放全部连接。
func (m *Manager) Tick() {
	if m.closed || m.ticking {
		return
	}
	m.ticking = true
	defer func() {
		m.ticking = false
		if m.closePending {
			m.closePending = false
			m.Close()
		}
	}()
	now := m.cfg.Now()
	n := len(m.conns)
	for i := 0; i < n; i++ {
		c := m.conns[i]
		if c.closing {
			m.expired = append(m.expired, i)
			continue
		}
		var expired bool
		switch c.kind {
		case KindTimer:
			expired = c.handleTimer(now)
		case KindTCP:
			expired = c.handleTCP(m.cfg.Dialer, m.cfg.DialTimeout)
		}
		if expired {
			m.expired = append(m.expired, i)
		}
	}
	m.reap()
}

// reap 逆序 swap-remove，保证较小下标在其之前不被移动
func (m *Manager) reap() {
	for j := len(m.expired) - 1; j >= 0; j-- {
		idx := m.expired[j]
		c := m.conns[idx]
		last := len(m.conns) - 1
		m.conns[idx] = m.conns[last]
		m.conns[last] = nil
		m.conns = m.conns[:last]
		m.log.Debug().Str("conn", c.id.String()).Msg("removing conn")
		c.release()
	}
	m.expired = m.expired[:0]
}

// Poll 为宿主主循环：每轮 Tick 后休眠 tick。
// 正常情况下永不返回；ctx 结束时返回 ctx.Err()，Manager 被关闭时返回 ErrClosed。
func (m *Manager) Poll(ctx context.Context, tick time.Duration) error {
	if tick <= 0 {
		return ErrInvalidArgument
	}
	t := time.NewTimer(tick)
	defer t.Stop()
	for {
		if m.closed {
			return ErrClosed
		}
		m.Tick()
		if m.closed {
			return ErrClosed
		}
		t.Reset(tick)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// Close 释放全部剩余连接，每个连接恰好收到一次 Close，之后拒绝新注册。
// 在 Tick 的回调中调用时推迟到该轮结束。重复调用无效果。
func (m *Manager) Close() {
	if m.ticking {
		m.closePending = true
		return
	}
	m.closed = true
	for len(m.conns) > 0 {
		conns := m.conns
		m.conns = nil
		for _, c := range conns {
			c.release()
		}
	}
}
