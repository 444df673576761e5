package gmux

import "time"

// handleTimer 到期（fireAt 严格早于 now）时触发并重新排期；一次性定时器返回 true 表示过期
func (c *Conn) handleTimer(now time.Time) (expired bool) {
	t := c.timer
	if !t.fireAt.Before(now) {
		return false
	}
	c.emit(EventTimer, StatusOK)
	t.fireAt = now.Add(t.interval)
	return t.once
}
