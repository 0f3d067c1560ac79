package agent

import "sync/atomic"

type AgentMetrics struct {
	Published       int64 // atomic
	PublishFailed   int64 // atomic
	ControlsApplied int64 // atomic
}

func (m *AgentMetrics) Snapshot() (published, failed, controls int64) {
	return atomic.LoadInt64(&m.Published),
		atomic.LoadInt64(&m.PublishFailed),
		atomic.LoadInt64(&m.ControlsApplied)
}

func (m *AgentMetrics) IncPublished() {
	atomic.AddInt64(&m.Published, 1)
}
func (m *AgentMetrics) IncPublishFailed() {
	atomic.AddInt64(&m.PublishFailed, 1)
}
func (m *AgentMetrics) IncControlsApplied() {
	atomic.AddInt64(&m.ControlsApplied, 1)
}
