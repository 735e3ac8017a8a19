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

import (
	"os"
	"sort"
	"strings"

	"google.golang.org/grpc/resolver"
)

// dualStackEndpointsEnabledConfigStr is the environment variable that gates
// whether additional addresses reported alongside a primary address are
// kept on an Endpoint.
const dualStackEndpointsEnabledConfigStr = "GRPC_EXPERIMENTAL_XDS_DUALSTACK_ENDPOINTS"

// DualStackEndpointsEnabled reflects the current value of
// GRPC_EXPERIMENTAL_XDS_DUALSTACK_ENDPOINTS, resolved once at process
// startup. A DependencyManager captures this value at construction and
// passes it to the Build* functions below, so an individual manager's
// behavior stays fixed for its lifetime even if this variable is changed
// later.
var DualStackEndpointsEnabled = strings.EqualFold(os.Getenv(dualStackEndpointsEnabledConfigStr), "true")

// RawClusterLoadAssignment is the already-decoded shape of an EDS response,
// independent of its wire encoding. Producing one of these from the wire
// bytes is the concern of the resource decoder, out of scope here.
type RawClusterLoadAssignment struct {
	Endpoints     []RawLocalityLbEndpoints
	DropOverloads []RawDropOverload
}

// RawLocalityLbEndpoints is one locality's worth of endpoints as reported by
// EDS, prior to normalization.
type RawLocalityLbEndpoints struct {
	Locality   Locality
	Weight     uint32 // 0 means unset.
	Priority   uint32
	Endpoints  []RawLbEndpoint
}

// RawLbEndpoint is a single endpoint within a locality, prior to
// normalization.
type RawLbEndpoint struct {
	Address             Address
	AdditionalAddresses []Address
	HealthStatus        HealthStatus
	Weight              uint32 // 0 means unset; normalizes to 1.
}

// DropDenominator identifies the denominator a drop_percentage numerator is
// expressed against.
type DropDenominator int

const (
	DropDenominatorHundred DropDenominator = iota
	DropDenominatorTenThousand
	DropDenominatorMillion
)

// RawDropOverload is a single drop-overload entry, prior to conversion to a
// per-million rate. An overload with no numerator/denominator pair set is
// skipped by the caller rather than represented here.
type RawDropOverload struct {
	Category    string
	Numerator   uint32
	Denominator DropDenominator
}

func (d DropDenominator) perMillion(numerator uint32) uint32 {
	switch d {
	case DropDenominatorHundred:
		return numerator * 10000
	case DropDenominatorTenThousand:
		return numerator * 100
	default:
		return numerator
	}
}

// BuildEndpointResourceFromEDS normalizes a raw EDS response into the
// uniform priority/locality/endpoint structure the reconciler works with.
func BuildEndpointResourceFromEDS(cla RawClusterLoadAssignment, dualStack bool) EndpointResource {
	byPriority := map[uint32][]LocalityEntry{}

	for _, loc := range cla.Endpoints {
		if loc.Weight == 0 {
			continue
		}

		var kept []WeightedEndpoint
		for _, ep := range loc.Endpoints {
			if ep.HealthStatus != HealthStatusUnknown && ep.HealthStatus != HealthStatusHealthy {
				continue
			}
			addrs := []Address{ep.Address}
			if dualStack {
				addrs = append(addrs, ep.AdditionalAddresses...)
			}
			weight := ep.Weight
			if weight == 0 {
				weight = 1
			}
			kept = append(kept, WeightedEndpoint{
				Endpoint: Endpoint{Addresses: addrs, HealthStatus: ep.HealthStatus},
				Weight:   weight,
			})
		}
		if len(kept) == 0 {
			continue
		}

		byPriority[loc.Priority] = append(byPriority[loc.Priority], LocalityEntry{
			Locality:  loc.Locality,
			Weight:    loc.Weight,
			Endpoints: kept,
		})
	}

	priorities := make([]uint32, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	sort.Slice(priorities, func(i, j int) bool { return priorities[i] < priorities[j] })

	dense := make([]PriorityEntry, 0, len(priorities))
	for _, p := range priorities {
		dense = append(dense, PriorityEntry{Localities: byPriority[p]})
	}

	var drops []DropCategory
	for _, d := range cla.DropOverloads {
		drops = append(drops, DropCategory{
			Category:           d.Category,
			RequestsPerMillion: d.Denominator.perMillion(d.Numerator),
		})
	}

	return EndpointResource{Priorities: dense, DropCategories: drops}
}

// BuildEndpointResourceFromDNS normalizes a DNS resolution into the same
// uniform structure: a single priority, a single locality with empty
// region/zone/sub_zone and weight 1, each resolved endpoint weighted 1.
func BuildEndpointResourceFromDNS(endpoints []resolver.Endpoint, dualStack bool) EndpointResource {
	if len(endpoints) == 0 {
		return EndpointResource{}
	}

	weighted := make([]WeightedEndpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if len(ep.Addresses) == 0 {
			continue
		}
		addrs := []Address{addressFromResolver(ep.Addresses[0])}
		if dualStack {
			for _, a := range ep.Addresses[1:] {
				addrs = append(addrs, addressFromResolver(a))
			}
		}
		weighted = append(weighted, WeightedEndpoint{
			Endpoint: Endpoint{Addresses: addrs, HealthStatus: HealthStatusHealthy},
			Weight:   1,
		})
	}
	if len(weighted) == 0 {
		return EndpointResource{}
	}

	return EndpointResource{
		Priorities: []PriorityEntry{{
			Localities: []LocalityEntry{{
				Weight:    1,
				Endpoints: weighted,
			}},
		}},
	}
}

func addressFromResolver(a resolver.Address) Address {
	host, port := splitHostPort(a.Addr)
	return Address{Host: host, Port: port}
}

func splitHostPort(hostport string) (string, uint32) {
	idx := strings.LastIndex(hostport, ":")
	if idx < 0 {
		return hostport, 0
	}
	host, portStr := hostport[:idx], hostport[idx+1:]
	var port uint32
	for _, c := range portStr {
		if c < '0' || c > '9' {
			return hostport, 0
		}
		port = port*10 + uint32(c-'0')
	}
	return host, port
}
