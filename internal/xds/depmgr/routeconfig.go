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

// routeConfigContext names the route configuration currently in effect, for
// use in error messages: the RDS resource name, or a description of the
// inline configuration when the Listener embeds one directly (in which case
// rdsResourceName is empty and would otherwise leave the context blank).
func (m *DependencyManager) routeConfigContext() string {
	if m.rdsResourceName == "" {
		return fmt.Sprintf("inline RouteConfiguration on Listener %s", m.ldsResourceName)
	}
	return fmt.Sprintf("RouteConfiguration %s", m.rdsResourceName)
}

// applyRouteConfigLocked implements §4.E.2 for both RDS-delivered and
// inline route configurations.
func (m *DependencyManager) applyRouteConfigLocked(update *xdsresource.RouteConfigUpdate) {
	vh := xdsresource.FindBestMatchingVirtualHost(m.dataplaneAuthority, update.VirtualHosts)
	if vh == nil {
		m.latestRouteConfig = nil
		m.virtualHost = nil
		m.clusterRoots = make(map[string]bool)
		m.pruneLocked()
		err := status.Errorf(codes.Unavailable, "No matching route found for %s", m.dataplaneAuthority)
		m.watcher.Error(m.annotateErrorWithNodeID(fmt.Errorf("%s: %w", m.routeConfigContext(), err)))
		return
	}

	m.latestRouteConfig = update
	m.virtualHost = vh
	m.routeConfigEverSucceeded = true

	roots := make(map[string]bool)
	for _, rt := range vh.Routes {
		switch rt.ActionType {
		case xdsresource.RouteActionCluster:
			roots[rt.Cluster] = true
		case xdsresource.RouteActionWeightedClusters:
			for _, wc := range rt.WeightedClusters {
				roots[wc.Name] = true
			}
		case xdsresource.RouteActionClusterHeader:
			// Dynamic selection; no static cluster dependency.
		}
	}
	m.clusterRoots = roots
	m.pruneLocked()
	for name := range roots {
		m.forest.add(name)
	}
	m.maybeSendUpdateLocked()
}

func (m *DependencyManager) onRouteConfigUpdate(update *xdsresource.RouteConfigUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	if m.logger.V(2) {
		m.logger.Infof("Received update for RouteConfiguration resource %q: %+v", m.rdsResourceName, update)
	}
	m.applyRouteConfigLocked(update)
}

func (m *DependencyManager) onRouteConfigError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	m.logger.Warningf("Received resource error for RouteConfiguration resource %q: %v", m.rdsResourceName, m.annotateErrorWithNodeID(err))
	if m.routeConfigEverSucceeded {
		return
	}
	m.watcher.Error(m.annotateErrorWithNodeID(fmt.Errorf("%s: %w", m.routeConfigContext(), err)))
}

func (m *DependencyManager) onRouteConfigResourceDoesNotExist() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	m.logger.Warningf("RouteConfiguration resource %q does not exist", m.rdsResourceName)
	m.latestRouteConfig = nil
	m.virtualHost = nil
	m.clusterRoots = make(map[string]bool)
	m.pruneLocked()
	m.watcher.Error(m.annotateErrorWithNodeID(fmt.Errorf("%s does not exist", m.routeConfigContext())))
}
