package gmux

import (
	"errors"
	"io"
	"net"
	"strconv"
	"testing"
	"time"
)

// echoListener 启动回显服务端，返回 host 与 port
func echoListener(t *testing.T) (string, uint16) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			nc, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer nc.Close()
				_, _ = io.Copy(nc, nc)
			}()
		}
	}()
	return splitAddr(t, l.Addr().String())
}

func splitAddr(t *testing.T, addr string) (string, uint16) {
	t.Helper()
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split %q: %v", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		t.Fatalf("port %q: %v", p, err)
	}
	return host, uint16(port)
}

// tickUntil 以真实时间推进，直到 cond 成立或超时
func tickUntil(t *testing.T, m *Manager, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		m.Tick()
		time.Sleep(2 * time.Millisecond)
	}
}

type dialerFunc func(network, address string, timeout time.Duration) (net.Conn, error)

func (f dialerFunc) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	return f(network, address, timeout)
}

func TestConnectFailure(t *testing.T) {
	refused := func(t *testing.T) Config {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		addr := l.Addr().String()
		l.Close()
		cfg := DefaultConfig()
		cfg.Dialer = dialerFunc(func(network, _ string, timeout time.Duration) (net.Conn, error) {
			return net.DialTimeout(network, addr, timeout)
		})
		return cfg
	}
	tests := []struct {
		name string
		cfg  func(t *testing.T) Config
	}{
		{name: "refused", cfg: refused},
		{name: "dial error", cfg: func(*testing.T) Config {
			cfg := DefaultConfig()
			cfg.Dialer = dialerFunc(func(string, string, time.Duration) (net.Conn, error) {
				return nil, errors.New("unreachable")
			})
			return cfg
		}},
		{name: "no raw fd", cfg: func(t *testing.T) Config {
			cfg := DefaultConfig()
			cfg.Dialer = dialerFunc(func(string, string, time.Duration) (net.Conn, error) {
				a, b := net.Pipe()
				t.Cleanup(func() { b.Close() })
				return a, nil
			})
			return cfg
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(tt.cfg(t))
			rec := &recorder{}
			id := m.AddTCPConn("127.0.0.1", 1, rec, nil)
			if len(rec.records) != 0 {
				t.Fatal("registration must not connect")
			}

			m.Tick()
			if got, want := rec.events(id), []Event{EventConnect, EventClose}; !equalEvents(got, want) {
				t.Fatalf("events = %v, want %v", got, want)
			}
			if rec.records[0].st != StatusTCPConnectionError {
				t.Errorf("connect status = %v, want tcp_connection_error", rec.records[0].st)
			}
			if !errors.Is(rec.records[0].st.Err(), ErrTCPConnection) {
				t.Errorf("status err = %v", rec.records[0].st.Err())
			}
			if m.Len() != 0 {
				t.Errorf("Len() = %d, want 0", m.Len())
			}
			m.Tick()
			if len(rec.records) != 2 {
				t.Errorf("got %d callbacks, want 2", len(rec.records))
			}
		})
	}
}

func TestSendRecvLifecycle(t *testing.T) {
	host, port := echoListener(t)
	m := NewManager(DefaultConfig())

	var got []byte
	buf := make([]byte, 64)
	rec := &recorder{}
	rec.onEvent = func(c *Conn, ev Event, st Status) {
		switch ev {
		case EventConnect:
			if st == StatusOK {
				c.Send([]byte("hello"))
			}
		case EventRecv:
			n := c.Read(buf)
			got = append(got, buf[:n]...)
		}
	}
	id := m.AddTCPConn(host, port, rec, nil)
	c := m.conns[0]

	m.Tick()
	if got, want := rec.events(id), []Event{EventConnect}; !equalEvents(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if rec.records[0].st != StatusOK {
		t.Fatalf("connect status = %v", rec.records[0].st)
	}
	if c.State() != StateSent {
		t.Fatalf("State() = %v after full send, want sent", c.State())
	}

	m.Tick()
	if got, want := rec.events(id), []Event{EventConnect, EventSend}; !equalEvents(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if rec.records[1].st != StatusOK {
		t.Errorf("send status = %v", rec.records[1].st)
	}
	if c.State() != StateWaitForData {
		t.Fatalf("State() = %v, want wait_for_data", c.State())
	}

	tickUntil(t, m, func() bool { return string(got) == "hello" })
	if c.State() != StateWaitForData {
		t.Errorf("State() = %v after recv, want wait_for_data", c.State())
	}
	if n := rec.count(EventSend); n != 1 {
		t.Errorf("send events = %v, want 1", n)
	}

	m.Close()
	if last := rec.records[len(rec.records)-1]; last.ev != EventClose {
		t.Errorf("last event = %v, want close", last.ev)
	}
}

func TestCloseNowWhileWaitingForData(t *testing.T) {
	host, port := echoListener(t)
	m := NewManager(DefaultConfig())
	rec := &recorder{}
	rec.onEvent = func(c *Conn, ev Event, st Status) {
		if ev == EventConnect && st == StatusOK {
			c.Send([]byte("ping"))
		}
	}
	id := m.AddTCPConn(host, port, rec, nil)
	c := m.conns[0]
	m.Tick()
	m.Tick()
	if c.State() != StateWaitForData {
		t.Fatalf("State() = %v, want wait_for_data", c.State())
	}

	// 等待回显到达后再关闭，确保存在未读数据
	deadline := time.Now().Add(2 * time.Second)
	for !c.readReady() {
		if time.Now().After(deadline) {
			t.Fatal("echo never arrived")
		}
		time.Sleep(2 * time.Millisecond)
	}
	c.CloseNow()
	m.Tick()
	m.Tick()

	if got, want := rec.events(id), []Event{EventConnect, EventSend, EventClose}; !equalEvents(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestWriteErrorKeepsConn(t *testing.T) {
	host, port := echoListener(t)
	m := NewManager(DefaultConfig())
	rec := &recorder{}
	id := m.AddTCPConn(host, port, rec, nil)
	c := m.conns[0]
	m.Tick()
	if c.tcp.sock == nil {
		t.Fatal("not connected")
	}

	// 关闭底层 socket 使写入失败
	c.tcp.sock.Close()
	c.Send([]byte("lost"))
	if c.State() != StateWriteError {
		t.Fatalf("State() = %v, want write_error", c.State())
	}
	if n := c.Read(make([]byte, 8)); n != 0 {
		t.Errorf("Read() on failed socket = %d, want 0", n)
	}

	m.Tick()
	m.Tick()
	if got, want := rec.events(id), []Event{EventConnect, EventSend, EventSend}; !equalEvents(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for _, r := range rec.records[1:] {
		if r.st != StatusTCPWriteError {
			t.Errorf("send status = %v, want tcp_write_error", r.st)
		}
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, write error must not remove", m.Len())
	}

	c.CloseNow()
	m.Tick()
	if got := rec.count(EventClose); got != 1 {
		t.Errorf("close events = %d, want 1", got)
	}
}

func TestNoSocketOps(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := newTestManager(clock)
	m.AddTimer(false, time.Second, nil, nil)
	m.AddTCPConn("127.0.0.1", 1, nil, nil)

	for _, c := range m.conns {
		c.Send([]byte("x"))
		if c.State() != StateStart {
			t.Errorf("%v: State() = %v after Send without socket, want start", c.Kind(), c.State())
		}
		if n := c.Read(make([]byte, 4)); n != 0 {
			t.Errorf("%v: Read() = %d, want 0", c.Kind(), n)
		}
	}
	if got := m.conns[1].Addr(); got != "127.0.0.1:1" {
		t.Errorf("Addr() = %q", got)
	}
	if got := m.conns[0].Addr(); got != "" {
		t.Errorf("timer Addr() = %q, want empty", got)
	}
}

func TestSendFromSendCallback(t *testing.T) {
	host, port := echoListener(t)
	m := NewManager(DefaultConfig())
	sends := 0
	rec := &recorder{}
	rec.onEvent = func(c *Conn, ev Event, st Status) {
		switch {
		case ev == EventConnect && st == StatusOK:
			c.Send([]byte("first"))
		case ev == EventSend && st == StatusOK:
			sends++
			if sends == 1 {
				c.Send([]byte("second"))
			}
		}
	}
	id := m.AddTCPConn(host, port, rec, nil)
	c := m.conns[0]

	m.Tick()
	m.Tick()
	if c.State() != StateSent {
		t.Fatalf("State() = %v after send inside send callback, want sent", c.State())
	}

	m.Tick()
	if got, want := rec.events(id), []Event{EventConnect, EventSend, EventSend}; !equalEvents(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for _, r := range rec.records[1:] {
		if r.st != StatusOK {
			t.Errorf("send status = %v, want ok", r.st)
		}
	}
	if c.State() != StateWaitForData {
		t.Errorf("State() = %v, want wait_for_data", c.State())
	}
	m.Close()
}

func TestPeerCloseKeepsWaiting(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	go func() {
		for {
			nc, err := l.Accept()
			if err != nil {
				return
			}
			// 读完再关，保证发出 FIN 而非 RST
			_, _ = io.ReadFull(nc, make([]byte, 1))
			nc.Close()
		}
	}()
	host, port := splitAddr(t, l.Addr().String())

	m := NewManager(DefaultConfig())
	rec := &recorder{}
	rec.onEvent = func(c *Conn, ev Event, st Status) {
		if ev == EventConnect && st == StatusOK {
			c.Send([]byte("x"))
		}
	}
	id := m.AddTCPConn(host, port, rec, nil)
	c := m.conns[0]
	m.Tick()
	if c.tcp.sock == nil {
		t.Fatal("not connected")
	}

	tickUntil(t, m, func() bool { return c.tcp.eof })
	m.Tick()
	m.Tick()

	if n := rec.count(EventRecv); n != 0 {
		t.Errorf("recv events = %d after peer close, want 0", n)
	}
	if c.State() != StateWaitForData {
		t.Errorf("State() = %v, want wait_for_data", c.State())
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, peer close must not remove", m.Len())
	}

	c.CloseNow()
	m.Tick()
	if got, want := rec.events(id), []Event{EventConnect, EventSend, EventClose}; !equalEvents(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}
