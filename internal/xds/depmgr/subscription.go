/*
 *
 * Copyright 2025 gRPC authors.
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
 */

package depmgr

// subscriptionCounter is component F: a map of externally pinned cluster
// names to reference counts. It contributes to the root set used for
// pruning, alongside the clusters implied by the current virtual host.
//
// It holds no xDS state of its own and performs no side effects; the
// reconciler decides when to prune/emit around mutations to it.
type subscriptionCounter struct {
	refs map[string]int32
}

func newSubscriptionCounter() *subscriptionCounter {
	return &subscriptionCounter{refs: make(map[string]int32)}
}

// subscribe increments the refcount for name, creating the entry if
// absent. It reports whether the entry was newly created (the caller must
// then lazily add the cluster to the forest and consider emitting).
func (s *subscriptionCounter) subscribe(name string) (created bool) {
	if _, ok := s.refs[name]; ok {
		s.refs[name]++
		return false
	}
	s.refs[name] = 1
	return true
}

// unsubscribe decrements the refcount for name. It reports whether the
// entry was removed because the count reached zero (the caller should then
// prune and consider emitting).
func (s *subscriptionCounter) unsubscribe(name string) (removed bool) {
	count, ok := s.refs[name]
	if !ok {
		return false
	}
	count--
	if count <= 0 {
		delete(s.refs, name)
		return true
	}
	s.refs[name] = count
	return false
}

// roots returns the set of subscribed names, suitable for unioning into
// the pruning root set.
func (s *subscriptionCounter) roots() map[string]bool {
	out := make(map[string]bool, len(s.refs))
	for name := range s.refs {
		out[name] = true
	}
	return out
}

// releaseFunc is a one-shot release handle: the first call unsubscribes,
// every subsequent call is a no-op.
type releaseFunc struct {
	name     string
	released bool
	dm       *DependencyManager
}

// Release unsubscribes from the cluster this handle was created for. Safe
// to call more than once; only the first call has an effect.
func (r *releaseFunc) Release() {
	r.dm.mu.Lock()
	defer r.dm.mu.Unlock()
	if r.released {
		return
	}
	r.released = true
	r.dm.releaseClusterSubscriptionLocked(r.name)
}
