// Package tasks 提供延迟执行的动作调度，替代阻塞式的 sleep。
package tasks

import (
	"sort"
	"sync"
	"time"
)

// Task 是一个已调度的延迟动作。
type Task interface {
	// Stop 取消尚未执行的动作，返回是否成功取消。
	Stop() bool
}

// Scheduler 在指定延迟之后执行 fn。
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
}

// TimerScheduler 使用 time.AfterFunc 实现 Scheduler。
type TimerScheduler struct{}

// NewTimerScheduler 返回基于真实时钟的调度器。
func NewTimerScheduler() TimerScheduler {
	return TimerScheduler{}
}

func (TimerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}

// ManualScheduler 只在调用 Advance 时推进时间，测试中用来控制延迟动作的执行时机。
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	pending []*manualTask
}

type manualTask struct {
	s   *ManualScheduler
	due time.Duration
	fn  func()
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for i, p := range t.s.pending {
		if p == t {
			t.s.pending = append(t.s.pending[:i], t.s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// NewManualScheduler 创建一个时间从零开始的手动调度器。
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTask{s: s, due: s.now + d, fn: fn}
	s.pending = append(s.pending, t)
	return t
}

// Advance 将时间推进 d，并在调用方的 goroutine 中按到期顺序执行到期的动作。
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due, rest []*manualTask
	for _, t := range s.pending {
		if t.due <= s.now {
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	s.pending = rest
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].due < due[j].due })
	for _, t := range due {
		t.fn()
	}
}

// Pending 返回尚未执行的动作数量。
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
