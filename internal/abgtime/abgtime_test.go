package abgtime_test

import (
	"testing"
	"time"

	"github.com/AdguardTeam/golibs/testutil"
	"github.com/csslayer/browser-ios/internal/abgtime"
	"github.com/stretchr/testify/assert"
)

// testTimeout is the common timeout for tests.
const testTimeout = 1 * time.Second

func TestTimerScheduler_AfterFunc(t *testing.T) {
	s := abgtime.TimerScheduler{}

	t.Run("runs", func(t *testing.T) {
		ranCh := make(chan struct{}, 1)
		task := s.AfterFunc(time.Millisecond, func() {
			testutil.RequireSend(testutil.PanicT{}, ranCh, struct{}{}, testTimeout)
		})

		testutil.RequireReceive(t, ranCh, testTimeout)
		assert.False(t, task.Stop())
	})

	t.Run("stopped", func(t *testing.T) {
		ranCh := make(chan struct{}, 1)
		task := s.AfterFunc(testTimeout, func() {
			ranCh <- struct{}{}
		})

		assert.True(t, task.Stop())
		assert.False(t, task.Stop())
		assert.Empty(t, ranCh)
	})
}

func TestNopTask(t *testing.T) {
	assert.False(t, abgtime.NopTask{}.Stop())
}
