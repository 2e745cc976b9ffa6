package mainwindow

import "sync"

// actionQueue bounds the pending actions before post blocks the caller.
const actionQueue = 64

// editLoop runs editing actions one at a time on a single goroutine. The
// session, the controller and the window's own state are only touched from
// inside it, whether the action came from a widget callback or from a
// finished download or upload.
type editLoop struct {
	actions chan func()
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newEditLoop() *editLoop {
	l := &editLoop{
		actions: make(chan func(), actionQueue),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *editLoop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.actions:
			fn()
		case <-l.quit:
			return
		}
	}
}

// post queues fn and reports whether it was accepted. Actions posted after
// stop are dropped.
func (l *editLoop) post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	default:
	}
	select {
	case l.actions <- fn:
		return true
	case <-l.quit:
		return false
	}
}

// wait queues fn and blocks until it has run. It must not be called from
// inside the loop.
func (l *editLoop) wait(fn func()) bool {
	ran := make(chan struct{})
	if !l.post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	select {
	case <-ran:
		return true
	case <-l.done:
		return false
	}
}

// stop ends the loop once the running action returns. Queued actions are
// discarded.
func (l *editLoop) stop() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}
