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

// Package xdsclient declares the boundary between the dependency manager
// and the xDS transport client. The transport client itself - connection
// management, ADS stream multiplexing, resource decoding - is out of scope;
// only the watch contract it offers is declared here.
package xdsclient

import "github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"

// Watcher is notified about the state of a single watched xDS resource of
// type R. OnResourceChanged may be called any number of times with the
// latest value. OnResourceError signals a transient control-plane failure
// and may be followed by a later OnResourceChanged. OnResourceDoesNotExist
// is an authoritative negative.
type Watcher[R any] interface {
	OnResourceChanged(update *R)
	OnResourceError(err error)
	OnResourceDoesNotExist()
}

// XDSClient is the subset of the xDS transport client that the dependency
// manager depends on: registering and cancelling typed watches for each of
// the four resource kinds it consumes.
type XDSClient interface {
	// NodeID returns the bootstrap node ID, used only to annotate errors
	// surfaced to the downstream watcher.
	NodeID() string

	WatchListener(name string, w Watcher[xdsresource.ListenerUpdate]) (cancel func())
	WatchRouteConfig(name string, w Watcher[xdsresource.RouteConfigUpdate]) (cancel func())
	WatchCluster(name string, w Watcher[xdsresource.ClusterUpdate]) (cancel func())
	WatchEndpoints(name string, w Watcher[xdsresource.RawClusterLoadAssignment]) (cancel func())
}
