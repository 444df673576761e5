package gmux

import "sync"

// Handler 为用户回调接口，由 Manager 在 poll 线程中调用，要求不阻塞返回。
// data 为注册时传入的用户数据，原样传回。
type Handler interface {
	OnEvent(c *Conn, ev Event, st Status, data any)
}

// HandlerFunc 将普通函数适配为 Handler
type HandlerFunc func(c *Conn, ev Event, st Status, data any)

func (f HandlerFunc) OnEvent(c *Conn, ev Event, st Status, data any) { f(c, ev, st, data) }

type nopHandler struct{}

func (nopHandler) OnEvent(*Conn, Event, Status, any) {}

// Shared 是宿主与回调共享的可变数据。
// 回调内使用 TryWith：借用失败即跳过本次调用，不影响事件循环。
type Shared[T any] struct {
	mu sync.Mutex
	v  T
}

func NewShared[T any](v T) *Shared[T] { return &Shared[T]{v: v} }

// TryWith 在 fn 执行期间独占借用数据；已被借用时返回 false 且不调用 fn
func (s *Shared[T]) TryWith(fn func(v *T)) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	fn(&s.v)
	return true
}

// With 阻塞直到借用成功，供事件循环之外的宿主代码使用
func (s *Shared[T]) With(fn func(v *T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.v)
}
