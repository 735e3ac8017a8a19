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

package xdsresource

// ListenerUpdate is the decoded payload of an LDS resource. The http
// connection manager embedded in the real wire resource is decoded
// upstream; by the time it reaches the dependency manager it has already
// been reduced to either a route config name or an inlined route config.
type ListenerUpdate struct {
	// RouteConfigName is set when the listener selects a RouteConfiguration
	// resource by name. Mutually exclusive with InlineRouteConfig.
	RouteConfigName string

	// InlineRouteConfig is set when the listener's http connection manager
	// inlines its route configuration instead of naming one. Mutually
	// exclusive with RouteConfigName.
	InlineRouteConfig *RouteConfigUpdate
}

// RouteConfigUpdate is the decoded payload of an RDS resource (or a
// Listener's inlined route configuration).
type RouteConfigUpdate struct {
	VirtualHosts []VirtualHost
}

// VirtualHost is a set of domain match patterns plus the routes reachable
// through it.
type VirtualHost struct {
	Domains []string
	Routes  []Route
}

// RouteActionType identifies how a route selects its destination cluster.
type RouteActionType int

const (
	// RouteActionCluster selects a single, statically named cluster.
	RouteActionCluster RouteActionType = iota
	// RouteActionWeightedClusters selects among several clusters by
	// weight.
	RouteActionWeightedClusters
	// RouteActionClusterHeader selects a cluster dynamically from a
	// request header; it contributes no static cluster dependency.
	RouteActionClusterHeader
)

// WeightedCluster is one member of a weighted-clusters route action.
type WeightedCluster struct {
	Name   string
	Weight uint32
}

// Route is a single route entry within a virtual host. Only the fields
// needed to determine the route's static cluster dependencies are carried
// here; match predicates and the rest of the route action are the concern
// of the downstream config selector, out of scope for the dependency
// manager.
type Route struct {
	ActionType RouteActionType

	// Cluster is populated when ActionType is RouteActionCluster.
	Cluster string

	// WeightedClusters is populated when ActionType is
	// RouteActionWeightedClusters.
	WeightedClusters []WeightedCluster
}
