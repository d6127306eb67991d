/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWorkerUnitStopTimeoutExceeded is returned when WorkerUnit's graceful stop timeout is exceeded.
var ErrWorkerUnitStopTimeoutExceeded = errors.New("worker unit stop timeout exceeded")

// WorkerUnitOpts contains optional parameters for constructing WorkerUnit.
type WorkerUnitOpts struct {
	// GracefulStopTimeout limits how long Stop(true) waits for the worker to return.
	// Zero means wait without limit.
	GracefulStopTimeout time.Duration
}

// WorkerUnit presents a Worker as a Unit. The worker's context is canceled on Stop.
type WorkerUnit struct {
	worker    Worker
	opts      WorkerUnitOpts
	ctx       context.Context
	ctxCancel context.CancelFunc

	startOnce sync.Once
	started   chan struct{}
	done      chan struct{}
}

var _ Unit = (*WorkerUnit)(nil)

// NewWorkerUnit creates a new WorkerUnit.
func NewWorkerUnit(worker Worker) *WorkerUnit {
	return NewWorkerUnitWithOpts(worker, WorkerUnitOpts{})
}

// NewWorkerUnitWithOpts is a more configurable version of NewWorkerUnit.
func NewWorkerUnitWithOpts(worker Worker, opts WorkerUnitOpts) *WorkerUnit {
	ctx, ctxCancel := context.WithCancel(context.Background())
	return &WorkerUnit{
		worker:    worker,
		opts:      opts,
		ctx:       ctx,
		ctxCancel: ctxCancel,
		started:   make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the underlying Worker and blocks until it returns. Only the first call has an effect.
func (u *WorkerUnit) Start(fatalErr chan<- error) {
	u.startOnce.Do(func() {
		close(u.started)
		defer close(u.done)
		if err := u.worker.Run(u.ctx); err != nil {
			fatalErr <- err
		}
	})
}

// Stop cancels the worker's context. If gracefully is true, it waits for the worker to return
// (but not longer than GracefulStopTimeout if it's set). Stop may be called multiple times.
func (u *WorkerUnit) Stop(gracefully bool) error {
	u.ctxCancel()
	if !gracefully {
		return nil
	}
	select {
	case <-u.started:
	default:
		return nil // Never started, nothing to wait for.
	}
	if u.opts.GracefulStopTimeout == 0 {
		<-u.done
		return nil
	}
	timer := time.NewTimer(u.opts.GracefulStopTimeout)
	defer timer.Stop()
	select {
	case <-u.done:
		return nil
	case <-timer.C:
		return ErrWorkerUnitStopTimeoutExceeded
	}
}

// Done returns a channel that is closed when the underlying worker returns.
func (u *WorkerUnit) Done() <-chan struct{} {
	return u.done
}
