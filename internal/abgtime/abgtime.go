// Package abgtime contains time-related utilities, most notably the one-shot
// task scheduler used for delayed revalidations and retries.
package abgtime

import "time"

// Task is a scheduled one-shot task.
type Task interface {
	// Stop prevents the task from running.  ok is false if the task has
	// already run or has already been stopped.
	Stop() (ok bool)
}

// Scheduler schedules one-shot tasks.
type Scheduler interface {
	// AfterFunc schedules f to be run in its own goroutine after d has passed.
	// f must not be nil.
	AfterFunc(d time.Duration, f func()) (t Task)
}

// TimerScheduler is a [Scheduler] that uses the timers of package time.
type TimerScheduler struct{}

// type check
var _ Scheduler = TimerScheduler{}

// AfterFunc implements the [Scheduler] interface for TimerScheduler.
func (TimerScheduler) AfterFunc(d time.Duration, f func()) (t Task) {
	return time.AfterFunc(d, f)
}

// NopTask is a [Task] that has already been run.
type NopTask struct{}

// type check
var _ Task = NopTask{}

// Stop implements the [Task] interface for NopTask.  ok is always false.
func (NopTask) Stop() (ok bool) { return false }
