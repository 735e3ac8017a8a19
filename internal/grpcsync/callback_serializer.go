/*
 *
 * Copyright 2022 gRPC authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

// Package grpcsync provides concurrency primitives used to keep the
// dependency manager's state transitions serialized.
package grpcsync

import (
	"context"
	"sync"
)

// CallbackSerializer provides a mechanism to schedule callbacks in a
// synchronized manner. It provides a FIFO guarantee on the order of
// execution of scheduled callbacks. New callbacks can be scheduled by
// invoking the Schedule() method.
//
// This type is safe for concurrent access.
type CallbackSerializer struct {
	// Done is closed once the serializer is shut down completely, i.e a
	// scheduled callback, if any, that was running when the context passed
	// to NewCallbackSerializer is cancelled, has completed and the
	// serializer has deallocated all its resources.
	Done chan struct{}

	mu      sync.Mutex
	pending []func(context.Context)
	notify  chan struct{}
	closed  bool
}

// NewCallbackSerializer returns a new CallbackSerializer instance. The
// provided context will be passed to the scheduled callbacks. Users should
// cancel the provided context to shutdown the CallbackSerializer. It is
// guaranteed that no callbacks will be executed once this context is
// canceled.
func NewCallbackSerializer(ctx context.Context) *CallbackSerializer {
	cs := &CallbackSerializer{
		Done:   make(chan struct{}),
		notify: make(chan struct{}, 1),
	}
	go cs.run(ctx)
	return cs
}

// Schedule adds a callback to be scheduled after existing callbacks are run.
//
// Callbacks are expected to honor the context when performing any blocking
// operations, and should return early when the context is canceled.
func (cs *CallbackSerializer) Schedule(f func(ctx context.Context)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.closed {
		return
	}
	cs.pending = append(cs.pending, f)
	select {
	case cs.notify <- struct{}{}:
	default:
	}
}

func (cs *CallbackSerializer) run(ctx context.Context) {
	defer close(cs.Done)
	for {
		select {
		case <-ctx.Done():
			cs.mu.Lock()
			cs.closed = true
			cs.pending = nil
			cs.mu.Unlock()
			return
		case <-cs.notify:
		}
		for {
			cs.mu.Lock()
			if len(cs.pending) == 0 {
				cs.mu.Unlock()
				break
			}
			f := cs.pending[0]
			cs.pending = cs.pending[1:]
			cs.mu.Unlock()

			if ctx.Err() != nil {
				return
			}
			f(ctx)
		}
		if ctx.Err() != nil {
			return
		}
	}
}
