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
	"fmt"

	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

// startEDSWatchLocked starts (or restarts) the EDS watch for node n against
// edsName, recording edsName on the node so later callbacks can be
// correlated back to the right node even across a subsequent CDS
// transition.
func (m *DependencyManager) startEDSWatchLocked(n *clusterNode, edsName string) {
	n.edsServiceName = edsName
	w := &genericWatcher[xdsresource.RawClusterLoadAssignment]{
		onUpdate:           func(u *xdsresource.RawClusterLoadAssignment) { m.onEndpointsUpdate(n.name, edsName, u) },
		onError:            func(err error) { m.onEndpointsError(n.name, edsName, err) },
		onResourceNotExist: func() { m.onEndpointsResourceDoesNotExist(n.name, edsName) },
	}
	n.edsCancel = m.xdsClient.WatchEndpoints(edsName, w)
}

// guardEDS re-fetches the node and checks it is still in the EDS sub-state
// the callback was registered for, guarding against a CDS transition that
// raced ahead of this callback on the single-threaded executor.
func (m *DependencyManager) guardEDS(clusterName, edsName string) *clusterNode {
	n, ok := m.forest.nodes[clusterName]
	if !ok || n.kind != kindEDS || n.edsServiceName != edsName {
		return nil
	}
	return n
}

func (m *DependencyManager) onEndpointsUpdate(clusterName, edsName string, update *xdsresource.RawClusterLoadAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n := m.guardEDS(clusterName, edsName)
	if n == nil {
		return
	}

	if m.logger.V(2) {
		m.logger.Infof("Received update for Endpoint resource %q: %+v", edsName, update)
	}
	n.latestEndpoints = xdsresource.BuildEndpointResourceFromEDS(*update, m.dualStackEnabled)
	n.resolutionNote = nil
	n.edsHasOutcome = true
	n.everReceivedEndpoints = true
	m.maybeSendUpdateLocked()
}

func (m *DependencyManager) onEndpointsError(clusterName, edsName string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n := m.guardEDS(clusterName, edsName)
	if n == nil {
		return
	}

	m.logger.Warningf("Received resource error for Endpoint resource %q: %v", edsName, m.annotateErrorWithNodeID(err))
	if n.everReceivedEndpoints {
		// Endpoints were already received at least once; retain them
		// silently.
		return
	}
	n.resolutionNote = fmt.Errorf("Control plane error: %v", err)
	n.edsHasOutcome = true
	m.maybeSendUpdateLocked()
}

func (m *DependencyManager) onEndpointsResourceDoesNotExist(clusterName, edsName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n := m.guardEDS(clusterName, edsName)
	if n == nil {
		return
	}

	m.logger.Warningf("Endpoint resource %q does not exist", edsName)
	n.latestEndpoints = xdsresource.EndpointResource{}
	n.resolutionNote = fmt.Errorf("Resource does not exist")
	n.edsHasOutcome = true
	n.everReceivedEndpoints = false
	m.maybeSendUpdateLocked()
}
