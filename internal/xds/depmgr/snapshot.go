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

import "github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"

// maybeSendUpdateLocked implements §4.E.5: it emits a snapshot only once the
// listener, a matching virtual host, and every cluster reachable from the
// current root set have each reached a settled outcome. Until then, callers
// that raced ahead of a still-resolving dependency simply return without
// producing a partial snapshot.
func (m *DependencyManager) maybeSendUpdateLocked() {
	if m.latestListener == nil || m.virtualHost == nil {
		return
	}

	reachable := m.forest.reachable(m.rootSetLocked())
	for name := range reachable {
		n, ok := m.forest.nodes[name]
		if !ok || !n.ready() {
			return
		}
	}

	clusters := make(map[string]*xdsresource.ClusterResult, len(m.forest.nodes))
	for name, n := range m.forest.nodes {
		clusters[name] = clusterResultFor(n)
	}

	config := &xdsresource.XDSConfig{
		Listener:    m.latestListener,
		RouteConfig: *m.latestRouteConfig,
		VirtualHost: m.virtualHost,
		Clusters:    clusters,
	}
	m.watcher.Update(config)
}

// clusterResultFor serializes a single clusterNode per the per-kind rules of
// §4.E.5: an errored node carries only its error; an Ok AGGREGATE carries its
// children; an Ok EDS/LOGICAL_DNS carries the normalized endpoints it last
// produced, or a resolution note if none are currently available.
func clusterResultFor(n *clusterNode) *xdsresource.ClusterResult {
	if n.err != nil {
		return &xdsresource.ClusterResult{Err: n.err}
	}

	cfg := xdsresource.ClusterConfig{Cluster: n.cdsUpdate}
	switch n.kind {
	case kindAggregate:
		cfg.AggregateConfig = xdsresource.AggregateConfig{LeafClusters: n.children}
	case kindEDS, kindLogicalDNS:
		cfg.EndpointConfig = xdsresource.EndpointConfig{
			Endpoints:      n.latestEndpoints,
			ResolutionNote: n.resolutionNote,
		}
	}
	return &xdsresource.ClusterResult{Config: cfg}
}
