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

// ClusterType identifies a cluster's discovery mechanism.
type ClusterType int

const (
	// ClusterTypeEDS is a cluster whose endpoints are discovered via EDS.
	ClusterTypeEDS ClusterType = iota
	// ClusterTypeAggregate is a cluster whose members are other clusters.
	ClusterTypeAggregate
	// ClusterTypeLogicalDNS is a cluster whose endpoints come from a DNS
	// resolution of a hostname.
	ClusterTypeLogicalDNS
)

func (t ClusterType) String() string {
	switch t {
	case ClusterTypeEDS:
		return "EDS"
	case ClusterTypeAggregate:
		return "AGGREGATE"
	case ClusterTypeLogicalDNS:
		return "LOGICAL_DNS"
	default:
		return "UNKNOWN"
	}
}

// ClusterUpdate is the decoded payload of a CDS resource. Only the fields
// relevant to the cluster's discovery type are meaningful:
// EDSServiceName for ClusterTypeEDS, DNSHostName for ClusterTypeLogicalDNS,
// PrioritizedClusterNames for ClusterTypeAggregate.
type ClusterUpdate struct {
	ClusterName string
	ClusterType ClusterType

	// EDSServiceName, when set, is the EDS resource name to watch instead
	// of ClusterName.
	EDSServiceName string

	// DNSHostName is the target resolved for ClusterTypeLogicalDNS
	// clusters.
	DNSHostName string

	// PrioritizedClusterNames lists the direct children of an aggregate
	// cluster, in the order the control plane sent them.
	PrioritizedClusterNames []string
}
