package verification

import "time"

// Scheduler arms deferred calls. The real implementation wraps time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	// Stop prevents the call from firing; it returns false if the call already started.
	Stop() bool
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler uses the runtime timers.
func RealScheduler() Scheduler {
	return realScheduler{}
}
