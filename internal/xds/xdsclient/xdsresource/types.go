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

// Package xdsresource defines the decoded shapes of the xDS resources
// consumed by the dependency manager, along with the domain matcher and
// endpoint normalizer that operate on them.
package xdsresource

// Address is a single network address, host plus port.
type Address struct {
	Host string
	Port uint32
}

// Endpoint is one logical backend: an ordered sequence of addresses. When
// dual-stack is disabled, only Addresses[0] is populated.
type Endpoint struct {
	Addresses []Address

	// HealthStatus records the health status as reported by the control
	// plane, for diagnostics; it has already been used to decide whether
	// this Endpoint survived normalization.
	HealthStatus HealthStatus
}

// HealthStatus mirrors the health status ordinals used by the control
// plane: UNKNOWN and HEALTHY endpoints are kept by the normalizer, every
// other status is dropped.
type HealthStatus int32

const (
	HealthStatusUnknown HealthStatus = iota
	HealthStatusHealthy
	HealthStatusUnhealthy
	HealthStatusDraining
	HealthStatusTimeout
	HealthStatusDegraded
)

// WeightedEndpoint is an Endpoint together with its positive load-balancing
// weight.
type WeightedEndpoint struct {
	Endpoint Endpoint
	Weight   uint32
}

// Locality identifies a region/zone/sub-zone triple.
type Locality struct {
	Region  string
	Zone    string
	SubZone string
}

// LocalityEntry is a locality, its weight, and the weighted endpoints within
// it. Endpoints is never empty for an entry that survives normalization.
type LocalityEntry struct {
	Locality  Locality
	Weight    uint32
	Endpoints []WeightedEndpoint
}

// PriorityEntry is a dense-indexed priority level holding a list of
// localities.
type PriorityEntry struct {
	Localities []LocalityEntry
}

// DropCategory names a class of requests to be dropped, quantified per
// million.
type DropCategory struct {
	Category           string
	RequestsPerMillion uint32
}

// EndpointResource is the normalized output of either an EDS response or a
// DNS resolution: a dense, order-preserving sequence of priorities plus drop
// categories.
type EndpointResource struct {
	Priorities     []PriorityEntry
	DropCategories []DropCategory
}
