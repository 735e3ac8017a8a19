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
	"net/url"

	"google.golang.org/grpc/resolver"
	"google.golang.org/grpc/serviceconfig"

	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

// dnsClientConn adapts a clusterNode to the resolver.ClientConn interface
// expected by a name-resolver builder. Its callbacks are re-dispatched
// through the dependency manager's dnsSerializer: Build() below is called
// with mu held, and a resolver implementation is free to call back into
// UpdateState/ReportError synchronously from within Build, which would
// otherwise deadlock on mu.
type dnsClientConn struct {
	clusterName string
	hostname    string
	dm          *DependencyManager
}

func (cc *dnsClientConn) UpdateState(state resolver.State) error {
	cc.dm.dnsSerializer.Schedule(func(context.Context) {
		cc.dm.onDNSUpdate(cc.clusterName, cc.hostname, state)
	})
	return nil
}

func (cc *dnsClientConn) ReportError(err error) {
	cc.dm.dnsSerializer.Schedule(func(context.Context) {
		cc.dm.onDNSError(cc.clusterName, cc.hostname, err)
	})
}

func (cc *dnsClientConn) NewAddress(addresses []resolver.Address) {
	cc.UpdateState(resolver.State{Addresses: addresses})
}

func (cc *dnsClientConn) ParseServiceConfig(string) *serviceconfig.ParseResult {
	return &serviceconfig.ParseResult{Err: fmt.Errorf("service config not supported")}
}

// startDNSResolverLocked builds a DNS resolver for hostname and attaches it
// to n. A failure to parse the target or build the resolver is reported as
// a resolution note rather than blocking the rest of the reconciliation, as
// described in the resolver-build-failure supplement.
func (m *DependencyManager) startDNSResolverLocked(n *clusterNode, hostname string) {
	n.dnsHostName = hostname
	cc := &dnsClientConn{clusterName: n.name, hostname: hostname, dm: m}

	u, err := url.Parse("dns:///" + hostname)
	if err != nil {
		n.resolutionNote = fmt.Errorf("failed to parse DNS target %q: %v", hostname, err)
		n.dnsHasOutcome = true
		return
	}
	r, err := resolver.Get("dns").Build(resolver.Target{URL: *u}, cc, resolver.BuildOptions{})
	if err != nil {
		n.resolutionNote = fmt.Errorf("failed to build DNS resolver for target %q: %v", hostname, err)
		n.dnsHasOutcome = true
		return
	}
	n.dnsResolver = r
}

func (m *DependencyManager) guardDNS(clusterName, hostname string) *clusterNode {
	n, ok := m.forest.nodes[clusterName]
	if !ok || n.kind != kindLogicalDNS || n.dnsHostName != hostname {
		return nil
	}
	return n
}

func (m *DependencyManager) onDNSUpdate(clusterName, hostname string, state resolver.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n := m.guardDNS(clusterName, hostname)
	if n == nil {
		return
	}

	if m.logger.V(2) {
		m.logger.Infof("Received update from DNS resolver for target %q: %+v", hostname, state)
	}

	endpoints := state.Endpoints
	if len(endpoints) == 0 {
		endpoints = make([]resolver.Endpoint, len(state.Addresses))
		for i, a := range state.Addresses {
			endpoints[i] = resolver.Endpoint{Addresses: []resolver.Address{a}}
		}
	}

	n.latestEndpoints = xdsresource.BuildEndpointResourceFromDNS(endpoints, m.dualStackEnabled)
	n.resolutionNote = nil
	n.dnsHasOutcome = true
	n.everReceivedEndpoints = true
	m.maybeSendUpdateLocked()
}

func (m *DependencyManager) onDNSError(clusterName, hostname string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	n := m.guardDNS(clusterName, hostname)
	if n == nil {
		return
	}

	m.logger.Warningf("DNS resolver error for target %q: %v", hostname, m.annotateErrorWithNodeID(err))
	if n.everReceivedEndpoints {
		return
	}
	n.resolutionNote = fmt.Errorf("Control plane error: %v", err)
	n.dnsHasOutcome = true
	m.maybeSendUpdateLocked()
}
