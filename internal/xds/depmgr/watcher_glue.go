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

// genericWatcher is a generic implementation of xdsclient.Watcher[T] that
// delegates each of the three callbacks to a closure. It lets every
// resource-kind handler in this package be registered without a
// hand-written watcher type per kind.
type genericWatcher[T any] struct {
	onUpdate           func(*T)
	onError            func(error)
	onResourceNotExist func()
}

func (w *genericWatcher[T]) OnResourceChanged(update *T) {
	w.onUpdate(update)
}

func (w *genericWatcher[T]) OnResourceError(err error) {
	w.onError(err)
}

func (w *genericWatcher[T]) OnResourceDoesNotExist() {
	w.onResourceNotExist()
}
