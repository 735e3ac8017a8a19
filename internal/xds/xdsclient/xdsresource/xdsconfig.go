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

import "google.golang.org/grpc/resolver"

// XDSConfig holds the complete gRPC client-side xDS configuration containing
// all necessary resources.
type XDSConfig struct {
	// Listener holds the listener configuration.
	Listener *ListenerUpdate

	// RouteConfig is the route configuration. It will be populated even if
	// RouteConfig is inlined into the Listener resource.
	RouteConfig RouteConfigUpdate

	// VirtualHost selected from the route configuration whose domain field
	// offers the best match against the provided dataplane authority.
	VirtualHost *VirtualHost

	// Clusters is a map from cluster name to its configuration.
	Clusters map[string]*ClusterResult
}

// ClusterResult contains either a cluster's configuration or an error.
type ClusterResult struct {
	Config ClusterConfig
	Err    error
}

// ClusterConfig contains configuration for a single cluster.
type ClusterConfig struct {
	Cluster         ClusterUpdate   // Cluster configuration. Always present.
	EndpointConfig  EndpointConfig  // Endpoint configuration for leaf clusters.
	AggregateConfig AggregateConfig // List of children for aggregate clusters.
}

// AggregateConfig contains the direct children of an aggregate cluster, in
// the order of its PrioritizedClusterNames. Despite the field name, the list
// is not flattened: a child may itself be an aggregate cluster.
type AggregateConfig struct {
	LeafClusters []string
}

// EndpointConfig contains configuration corresponding to the endpoints in a
// leaf cluster (EDS or LOGICAL_DNS). Endpoints holds the last normalized
// endpoint data and is the zero value when none has been received, or after
// the EDS resource was reported missing; an update that carries no usable
// endpoints also leaves it zero, with ResolutionNote unset.
type EndpointConfig struct {
	Endpoints      EndpointResource // Normalized endpoint data, EDS or DNS.
	ResolutionNote error            // Set when endpoints are currently unavailable.
}

// xdsConfigkey is the type used as the key to store XDSConfig in
// the Attributes field of resolver.states.
type xdsConfigkey struct{}

// SetXDSConfig returns a copy of state in which the Attributes field
// is updated with the XDSConfig.
func SetXDSConfig(state resolver.State, config *XDSConfig) resolver.State {
	state.Attributes = state.Attributes.WithValue(xdsConfigkey{}, config)
	return state
}

// XDSConfigFromResolverState returns the XDSConfig stored as an attribute in
// the resolver state.
func XDSConfigFromResolverState(state resolver.State) *XDSConfig {
	if v := state.Attributes.Value(xdsConfigkey{}); v != nil {
		return v.(*XDSConfig)
	}
	return nil
}
