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
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc/grpclog"
	"google.golang.org/grpc/resolver"

	internalgrpclog "github.com/enderteszla/xds-depmgr/internal/grpclog"
	"github.com/enderteszla/xds-depmgr/internal/grpcsync"
	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient"
	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

const logPrefix = "[xds-depmgr %p] "

var logger = grpclog.Component("xds-depmgr")

func prefixLogger(m *DependencyManager) *internalgrpclog.PrefixLogger {
	return internalgrpclog.NewPrefixLogger(logger, fmt.Sprintf(logPrefix, m))
}

// ConfigWatcher is the interface implemented by the single consumer of the
// aggregated xDS configuration produced by the DependencyManager.
type ConfigWatcher interface {
	// Update is invoked with a complete, validated snapshot. Implementations
	// must treat the value as read-only.
	Update(*xdsresource.XDSConfig)

	// Error is invoked when no snapshot can yet be formed and the control
	// plane reports a transient failure or an authoritative negative at the
	// listener or route-config level.
	Error(error)
}

// DependencyManager reconciles LDS, RDS, CDS, EDS and DNS watches into a
// single coherent XDSConfig snapshot, delivered to a ConfigWatcher.
type DependencyManager struct {
	// Read-only after construction.
	logger             *internalgrpclog.PrefixLogger
	watcher            ConfigWatcher
	xdsClient          xdsclient.XDSClient
	ldsResourceName    string
	dataplaneAuthority string
	nodeID             string
	dualStackEnabled   bool

	// dnsSerializer re-dispatches DNS resolver callbacks, which may arrive
	// synchronously from within Build() while mu is held, onto a queue that
	// runs without mu held by the caller that triggered Build.
	dnsSerializer       *grpcsync.CallbackSerializer
	dnsSerializerCancel func()

	mu      sync.Mutex
	stopped bool

	// Listener state.
	listenerCancel        func()
	latestListener        *xdsresource.ListenerUpdate
	listenerEverSucceeded bool

	// Route configuration state.
	rdsResourceName          string
	rdsCancel                func()
	latestRouteConfig        *xdsresource.RouteConfigUpdate
	virtualHost              *xdsresource.VirtualHost
	routeConfigEverSucceeded bool
	clusterRoots             map[string]bool

	forest *forest
	subs   *subscriptionCounter
}

// New creates a DependencyManager and starts the Listener watch; all other
// watches are started lazily as the listener and route configuration are
// resolved.
func New(listenerName, dataplaneAuthority string, xdsClient xdsclient.XDSClient, watcher ConfigWatcher) *DependencyManager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &DependencyManager{
		ldsResourceName:     listenerName,
		dataplaneAuthority:  dataplaneAuthority,
		xdsClient:           xdsClient,
		watcher:             watcher,
		nodeID:              xdsClient.NodeID(),
		dualStackEnabled:    xdsresource.DualStackEndpointsEnabled,
		dnsSerializer:       grpcsync.NewCallbackSerializer(ctx),
		dnsSerializerCancel: cancel,
		clusterRoots:        make(map[string]bool),
		subs:                newSubscriptionCounter(),
	}
	m.logger = prefixLogger(m)
	m.forest = newForest(m.newClusterNode)

	w := &genericWatcher[xdsresource.ListenerUpdate]{
		onUpdate:           m.onListenerUpdate,
		onError:            m.onListenerError,
		onResourceNotExist: m.onListenerResourceDoesNotExist,
	}
	m.listenerCancel = xdsClient.WatchListener(listenerName, w)
	return m
}

// Close cancels every outstanding watch and resolver. No further snapshots
// are emitted after Close returns.
func (m *DependencyManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true

	if m.listenerCancel != nil {
		m.listenerCancel()
	}
	if m.rdsCancel != nil {
		m.rdsCancel()
	}
	m.forest.prune(nil)
	m.clusterRoots = nil
	m.subs = newSubscriptionCounter()

	// The DNS serializer's callbacks acquire mu; it cannot be waited on here
	// without deadlocking, so it is only cancelled, not drained.
	m.dnsSerializerCancel()
}

// AddClusterSubscription pins name as an externally referenced cluster,
// contributing to the root set used for pruning, and returns a release
// handle. Component F.
func (m *DependencyManager) AddClusterSubscription(name string) *releaseFunc {
	m.mu.Lock()
	defer m.mu.Unlock()

	if created := m.subs.subscribe(name); created {
		m.forest.add(name)
		m.pruneLocked()
		m.maybeSendUpdateLocked()
	}
	return &releaseFunc{name: name, dm: m}
}

func (m *DependencyManager) releaseClusterSubscriptionLocked(name string) {
	if m.stopped {
		return
	}
	if removed := m.subs.unsubscribe(name); removed {
		m.pruneLocked()
		m.maybeSendUpdateLocked()
	}
}

// RequestResolutionNow forwards a re-resolution request to every
// LOGICAL_DNS resolver currently active. It has no effect on EDS clusters.
func (m *DependencyManager) RequestResolutionNow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.forest.nodes {
		if n.dnsResolver != nil {
			n.dnsResolver.ResolveNow(resolver.ResolveNowOptions{})
		}
	}
}

// annotateErrorWithNodeID wraps err with the bootstrap node ID, matching
// every error surfaced to the downstream watcher.
func (m *DependencyManager) annotateErrorWithNodeID(err error) error {
	return fmt.Errorf("[xDS node id: %v]: %w", m.nodeID, err)
}

// rootSetLocked is the union of the clusters implied by the current virtual
// host and the externally pinned subscriptions.
func (m *DependencyManager) rootSetLocked() map[string]bool {
	roots := make(map[string]bool, len(m.clusterRoots)+len(m.subs.refs))
	for name := range m.clusterRoots {
		roots[name] = true
	}
	for name := range m.subs.roots() {
		roots[name] = true
	}
	return roots
}

func (m *DependencyManager) pruneLocked() {
	m.forest.prune(m.rootSetLocked())
}
