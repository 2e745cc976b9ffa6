package mainwindow

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditLoopRunsInOrder(t *testing.T) {
	l := newEditLoop()
	defer l.stop()

	var got []int
	for i := 0; i < 10; i++ {
		i := i
		require.True(t, l.post(func() { got = append(got, i) }))
	}
	require.True(t, l.wait(func() {}))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestEditLoopRunsOneAtATime(t *testing.T) {
	l := newEditLoop()
	defer l.stop()

	var running, overlaps int32
	done := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		go l.post(func() {
			if atomic.AddInt32(&running, 1) > 1 {
				atomic.AddInt32(&overlaps, 1)
			}
			atomic.AddInt32(&running, -1)
			done <- struct{}{}
		})
	}
	for i := 0; i < 50; i++ {
		<-done
	}
	assert.Zero(t, atomic.LoadInt32(&overlaps))
}

func TestEditLoopStop(t *testing.T) {
	l := newEditLoop()
	l.stop()
	l.stop()

	assert.False(t, l.post(func() { t.Error("ran after stop") }))
	assert.False(t, l.wait(func() { t.Error("ran after stop") }))
}
