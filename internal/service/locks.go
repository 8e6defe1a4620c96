package service

import "sync"

// GoalLocks serializes writers per goal within this process. Cross-process
// writers are caught by the goal version check.
type GoalLocks struct {
	mu    sync.Mutex
	locks map[string]*goalLock
}

type goalLock struct {
	mu   sync.Mutex
	refs int
}

func NewGoalLocks() *GoalLocks {
	return &GoalLocks{locks: make(map[string]*goalLock)}
}

// Lock blocks until the goal's lock is held and returns its release func.
func (l *GoalLocks) Lock(goalID string) func() {
	l.mu.Lock()
	gl, ok := l.locks[goalID]
	if !ok {
		gl = &goalLock{}
		l.locks[goalID] = gl
	}
	gl.refs++
	l.mu.Unlock()

	gl.mu.Lock()

	return func() {
		gl.mu.Unlock()

		l.mu.Lock()
		gl.refs--
		if gl.refs == 0 {
			delete(l.locks, goalID)
		}
		l.mu.Unlock()
	}
}

func (l *GoalLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
