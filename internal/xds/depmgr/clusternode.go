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

// Package depmgr implements the xDS dependency manager: the reconciler
// that turns LDS/RDS/CDS/EDS/DNS watches into a single coherent
// configuration snapshot for a downstream consumer.
package depmgr

import (
	"google.golang.org/grpc/resolver"

	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

// clusterKind discriminates the payload a clusterNode currently holds. A
// node with no successful CDS update yet, or whose latest CDS outcome was
// an error, carries kindNone and no type-specific substate.
type clusterKind int

const (
	kindNone clusterKind = iota
	kindAggregate
	kindEDS
	kindLogicalDNS
)

// clusterNode is the per-cluster record described as component C: a CDS
// watch plus whatever sub-resource watch or resolver the node currently
// owns. All mutation happens through the reconciler on CDS/EDS/DNS
// callbacks; this type itself holds only state and teardown functions.
type clusterNode struct {
	name         string
	cdsCancel    func()

	// hasOutcome is true once the CDS watch has delivered either an update
	// or an error at least once. err is set (and kind is kindNone) when the
	// latest outcome was an error; otherwise the node is Ok and kind
	// reflects the discovery type of cdsUpdate.
	hasOutcome bool
	err        error
	kind       clusterKind
	cdsUpdate  xdsresource.ClusterUpdate

	// children mirrors the last AGGREGATE update's PrioritizedClusterNames.
	// It is empty for any non-aggregate node.
	children []string

	// EDS substate, valid when kind == kindEDS.
	edsServiceName        string
	edsCancel             func()
	edsHasOutcome         bool
	everReceivedEndpoints bool
	latestEndpoints       xdsresource.EndpointResource
	resolutionNote        error

	// LOGICAL_DNS substate, valid when kind == kindLogicalDNS.
	dnsHostName   string
	dnsResolver   resolver.Resolver
	dnsHasOutcome bool
}

// setOk records a successful CDS update and clears any previous error.
// The caller is responsible for tearing down sub-watches made stale by a
// type or identity change before calling setOk.
func (n *clusterNode) setOk(kind clusterKind, update xdsresource.ClusterUpdate) {
	n.hasOutcome = true
	n.err = nil
	n.kind = kind
	n.cdsUpdate = update
	if kind == kindAggregate {
		n.children = update.PrioritizedClusterNames
	} else {
		n.children = nil
	}
}

// setErr records a CDS resource error or a does-not-exist outcome. Any
// sub-watch is expected to already have been torn down by the caller.
func (n *clusterNode) setErr(err error) {
	n.hasOutcome = true
	n.err = err
	n.kind = kindNone
	n.children = nil
}

// teardownSubWatch cancels whatever EDS watch or DNS resolver the node
// currently owns and clears the associated substate. It is idempotent.
func (n *clusterNode) teardownSubWatch() {
	if n.edsCancel != nil {
		n.edsCancel()
		n.edsCancel = nil
	}
	if n.dnsResolver != nil {
		n.dnsResolver.Close()
		n.dnsResolver = nil
	}
	n.edsServiceName = ""
	n.edsHasOutcome = false
	n.everReceivedEndpoints = false
	n.dnsHostName = ""
	n.dnsHasOutcome = false
	n.latestEndpoints = xdsresource.EndpointResource{}
	n.resolutionNote = nil
}

// ready reports whether the node has reached a settled outcome for
// purposes of snapshot emission (§4.E.5): an Err node is always ready; an
// Ok AGGREGATE is always ready; an Ok EDS/LOGICAL_DNS is ready once its
// sub-watch has produced any outcome at all, successful or not.
func (n *clusterNode) ready() bool {
	if !n.hasOutcome {
		return false
	}
	if n.err != nil {
		return true
	}
	switch n.kind {
	case kindAggregate:
		return true
	case kindEDS:
		return n.edsHasOutcome
	case kindLogicalDNS:
		return n.dnsHasOutcome
	default:
		return true
	}
}
