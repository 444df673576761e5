package gmux

import "fmt"

// Event 为回调携带的事件类型
type Event uint8

const (
	EventConnect Event = iota
	EventSend
	EventRecv
	EventTimer
	EventClose
)

func (e Event) String() string {
	switch e {
	case EventConnect:
		return "connect"
	case EventSend:
		return "send"
	case EventRecv:
		return "recv"
	case EventTimer:
		return "timer"
	case EventClose:
		return "close"
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// Status 仅对 Connect 与 Send 有意义；Timer/Recv/Close 恒为 StatusOK
type Status uint8

const (
	StatusOK Status = iota
	StatusTCPConnectionError
	StatusTCPWriteError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTCPConnectionError:
		return "tcp_connection_error"
	case StatusTCPWriteError:
		return "tcp_write_error"
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// Err 将状态映射为哨兵错误，StatusOK 返回 nil
func (s Status) Err() error {
	switch s {
	case StatusTCPConnectionError:
		return ErrTCPConnection
	case StatusTCPWriteError:
		return ErrTCPWrite
	}
	return nil
}

// Kind 在创建时确定，之后不变
type Kind uint8

const (
	KindTimer Kind = iota
	KindTCP
)

func (k Kind) String() string {
	if k == KindTimer {
		return "timer"
	}
	return "tcp"
}

// State 为 TCP 子状态机的状态。定时器不使用它。
// CloseNow 由 Conn 上独立的终止标记表达，两种连接共用。
type State uint8

const (
	StateStart State = iota
	StateWaitForConnection
	StateWaitForData
	StateConnected
	StateWriteError
	StateSent
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateWaitForConnection:
		return "wait_for_connection"
	case StateWaitForData:
		return "wait_for_data"
	case StateConnected:
		return "connected"
	case StateWriteError:
		return "write_error"
	case StateSent:
		return "sent"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}
