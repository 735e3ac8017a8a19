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

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

// newClusterNode is the forest's node factory: it creates a clusterNode and
// starts its CDS watch. Called with mu held.
func (m *DependencyManager) newClusterNode(name string) *clusterNode {
	n := &clusterNode{name: name}
	w := &genericWatcher[xdsresource.ClusterUpdate]{
		onUpdate:           func(u *xdsresource.ClusterUpdate) { m.onClusterUpdate(name, u) },
		onError:            func(err error) { m.onClusterError(name, err) },
		onResourceNotExist: func() { m.onClusterResourceDoesNotExist(name) },
	}
	n.cdsCancel = m.xdsClient.WatchCluster(name, w)
	return n
}

// onClusterUpdate implements the CDS transition table of §4.E.3.
func (m *DependencyManager) onClusterUpdate(name string, update *xdsresource.ClusterUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n, ok := m.forest.nodes[name]
	if !ok {
		return
	}

	if m.logger.V(2) {
		m.logger.Infof("Received update for Cluster resource %q: %+v", name, update)
	}

	wasOk := n.hasOutcome && n.err == nil
	prevKind := n.kind

	switch update.ClusterType {
	case xdsresource.ClusterTypeAggregate:
		if wasOk && prevKind != kindAggregate {
			n.teardownSubWatch()
		}
		n.setOk(kindAggregate, *update)
		for _, child := range n.children {
			m.forest.add(child)
		}
		m.pruneLocked()

	case xdsresource.ClusterTypeEDS:
		newName := update.EDSServiceName
		if newName == "" {
			newName = name
		}
		switch {
		case wasOk && prevKind == kindEDS && n.edsServiceName == newName:
			n.cdsUpdate = *update
		default:
			// Covers both a fresh EDS cluster and an EDS cluster whose
			// edsServiceName changed: either way the old sub-watch (if any)
			// is stale and the new CDS update must be stored before the new
			// EDS watch starts, so the emitted snapshot's ClusterConfig.Cluster
			// never carries a previous discovery type's (or name's) update.
			wasAggregate := wasOk && prevKind == kindAggregate
			if wasOk {
				n.teardownSubWatch()
			}
			n.setOk(kindEDS, *update)
			m.startEDSWatchLocked(n, newName)
			if wasAggregate {
				// The node's children edge is gone now that it holds an EDS
				// update; its former aggregate children may no longer be
				// reachable from any root and must be dropped, not left
				// behind with live CDS watches.
				m.pruneLocked()
			}
		}

	case xdsresource.ClusterTypeLogicalDNS:
		wasAggregate := wasOk && prevKind == kindAggregate
		switch {
		case wasOk && prevKind == kindLogicalDNS && n.dnsHostName == update.DNSHostName:
			n.cdsUpdate = *update
		case wasOk && prevKind == kindLogicalDNS:
			n.teardownSubWatch()
			n.setOk(kindLogicalDNS, *update)
			m.startDNSResolverLocked(n, update.DNSHostName)
		default:
			if wasOk {
				n.teardownSubWatch()
			}
			n.setOk(kindLogicalDNS, *update)
			m.startDNSResolverLocked(n, update.DNSHostName)
		}
		if wasAggregate {
			// Former aggregate children are no longer referenced by this
			// node's children edge; prune anything they made unreachable.
			m.pruneLocked()
		}

	default:
		n.teardownSubWatch()
		n.setErr(m.annotateErrorWithNodeID(fmt.Errorf("cluster %s: unsupported discovery type", name)))
	}

	m.maybeSendUpdateLocked()
}

func (m *DependencyManager) onClusterError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n, ok := m.forest.nodes[name]
	if !ok {
		return
	}

	m.logger.Warningf("Received resource error for Cluster resource %q: %v", name, m.annotateErrorWithNodeID(err))
	if n.hasOutcome && n.err == nil {
		// Already Ok: treat as transient, retain working state.
		return
	}
	n.setErr(err)
	m.maybeSendUpdateLocked()
}

func (m *DependencyManager) onClusterResourceDoesNotExist(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n, ok := m.forest.nodes[name]
	if !ok {
		return
	}

	m.logger.Warningf("Cluster resource %q does not exist", name)
	n.teardownSubWatch()
	n.setErr(status.Errorf(codes.Unavailable, "Cluster resource %s does not exist", name))
	m.pruneLocked()
	m.maybeSendUpdateLocked()
}
