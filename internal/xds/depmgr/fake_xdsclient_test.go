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

import (
	"sync"

	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient"
	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

// fakeXDSClient is an in-process double for xdsclient.XDSClient: it records
// every watch registered against it, keyed by resource kind and name, and
// lets a test push updates/errors/does-not-exist notifications directly into
// the corresponding watcher.
type fakeXDSClient struct {
	nodeID string

	mu        sync.Mutex
	listeners map[string][]xdsclient.Watcher[xdsresource.ListenerUpdate]
	routes    map[string][]xdsclient.Watcher[xdsresource.RouteConfigUpdate]
	clusters  map[string][]xdsclient.Watcher[xdsresource.ClusterUpdate]
	endpoints map[string][]xdsclient.Watcher[xdsresource.RawClusterLoadAssignment]
}

func newFakeXDSClient(nodeID string) *fakeXDSClient {
	return &fakeXDSClient{
		nodeID:    nodeID,
		listeners: make(map[string][]xdsclient.Watcher[xdsresource.ListenerUpdate]),
		routes:    make(map[string][]xdsclient.Watcher[xdsresource.RouteConfigUpdate]),
		clusters:  make(map[string][]xdsclient.Watcher[xdsresource.ClusterUpdate]),
		endpoints: make(map[string][]xdsclient.Watcher[xdsresource.RawClusterLoadAssignment]),
	}
}

func (f *fakeXDSClient) NodeID() string { return f.nodeID }

func (f *fakeXDSClient) WatchListener(name string, w xdsclient.Watcher[xdsresource.ListenerUpdate]) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners[name] = append(f.listeners[name], w)
	return func() {}
}

func (f *fakeXDSClient) WatchRouteConfig(name string, w xdsclient.Watcher[xdsresource.RouteConfigUpdate]) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[name] = append(f.routes[name], w)
	return func() {}
}

func (f *fakeXDSClient) WatchCluster(name string, w xdsclient.Watcher[xdsresource.ClusterUpdate]) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clusters[name] = append(f.clusters[name], w)
	return func() { f.cancelCluster(name, w) }
}

func (f *fakeXDSClient) WatchEndpoints(name string, w xdsclient.Watcher[xdsresource.RawClusterLoadAssignment]) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints[name] = append(f.endpoints[name], w)
	return func() { f.cancelEndpoints(name, w) }
}

func (f *fakeXDSClient) cancelCluster(name string, w xdsclient.Watcher[xdsresource.ClusterUpdate]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws := f.clusters[name]
	for i, existing := range ws {
		if existing == w {
			f.clusters[name] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
}

func (f *fakeXDSClient) cancelEndpoints(name string, w xdsclient.Watcher[xdsresource.RawClusterLoadAssignment]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ws := f.endpoints[name]
	for i, existing := range ws {
		if existing == w {
			f.endpoints[name] = append(ws[:i], ws[i+1:]...)
			break
		}
	}
}

func (f *fakeXDSClient) pushListenerUpdate(name string, u *xdsresource.ListenerUpdate) {
	f.mu.Lock()
	ws := append([]xdsclient.Watcher[xdsresource.ListenerUpdate]{}, f.listeners[name]...)
	f.mu.Unlock()
	for _, w := range ws {
		w.OnResourceChanged(u)
	}
}

func (f *fakeXDSClient) pushRouteConfigUpdate(name string, u *xdsresource.RouteConfigUpdate) {
	f.mu.Lock()
	ws := append([]xdsclient.Watcher[xdsresource.RouteConfigUpdate]{}, f.routes[name]...)
	f.mu.Unlock()
	for _, w := range ws {
		w.OnResourceChanged(u)
	}
}

func (f *fakeXDSClient) pushClusterUpdate(name string, u *xdsresource.ClusterUpdate) {
	f.mu.Lock()
	ws := append([]xdsclient.Watcher[xdsresource.ClusterUpdate]{}, f.clusters[name]...)
	f.mu.Unlock()
	for _, w := range ws {
		w.OnResourceChanged(u)
	}
}

func (f *fakeXDSClient) pushClusterDoesNotExist(name string) {
	f.mu.Lock()
	ws := append([]xdsclient.Watcher[xdsresource.ClusterUpdate]{}, f.clusters[name]...)
	f.mu.Unlock()
	for _, w := range ws {
		w.OnResourceDoesNotExist()
	}
}

func (f *fakeXDSClient) pushEndpointsUpdate(name string, u *xdsresource.RawClusterLoadAssignment) {
	f.mu.Lock()
	ws := append([]xdsclient.Watcher[xdsresource.RawClusterLoadAssignment]{}, f.endpoints[name]...)
	f.mu.Unlock()
	for _, w := range ws {
		w.OnResourceChanged(u)
	}
}

func (f *fakeXDSClient) pushEndpointsError(name string, err error) {
	f.mu.Lock()
	ws := append([]xdsclient.Watcher[xdsresource.RawClusterLoadAssignment]{}, f.endpoints[name]...)
	f.mu.Unlock()
	for _, w := range ws {
		w.OnResourceError(err)
	}
}

func (f *fakeXDSClient) hasClusterWatch(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clusters[name]) > 0
}

func (f *fakeXDSClient) hasEndpointsWatch(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.endpoints[name]) > 0
}
