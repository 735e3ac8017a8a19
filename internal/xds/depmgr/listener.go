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

	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

func (m *DependencyManager) onListenerUpdate(update *xdsresource.ListenerUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	if m.logger.V(2) {
		m.logger.Infof("Received update for Listener resource %q: %+v", m.ldsResourceName, update)
	}
	m.latestListener = update
	m.listenerEverSucceeded = true

	if update.InlineRouteConfig != nil {
		m.rdsResourceName = ""
		if m.rdsCancel != nil {
			m.rdsCancel()
			m.rdsCancel = nil
		}
		m.applyRouteConfigLocked(update.InlineRouteConfig)
		return
	}

	if m.rdsResourceName == update.RouteConfigName && m.rdsCancel != nil {
		m.maybeSendUpdateLocked()
		return
	}

	m.rdsResourceName = update.RouteConfigName
	if m.rdsCancel != nil {
		m.rdsCancel()
	}
	m.latestRouteConfig = nil
	m.virtualHost = nil
	m.routeConfigEverSucceeded = false
	m.clusterRoots = make(map[string]bool)
	m.pruneLocked()

	w := &genericWatcher[xdsresource.RouteConfigUpdate]{
		onUpdate:           m.onRouteConfigUpdate,
		onError:            m.onRouteConfigError,
		onResourceNotExist: m.onRouteConfigResourceDoesNotExist,
	}
	m.rdsCancel = m.xdsClient.WatchRouteConfig(m.rdsResourceName, w)
}

func (m *DependencyManager) onListenerError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	m.logger.Warningf("Received resource error for Listener resource %q: %v", m.ldsResourceName, m.annotateErrorWithNodeID(err))
	if m.listenerEverSucceeded {
		return
	}
	m.watcher.Error(m.annotateErrorWithNodeID(fmt.Errorf("Listener %s: %w", m.ldsResourceName, err)))
}

func (m *DependencyManager) onListenerResourceDoesNotExist() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	m.logger.Warningf("Listener resource %q does not exist", m.ldsResourceName)
	if m.rdsCancel != nil {
		m.rdsCancel()
		m.rdsCancel = nil
	}
	m.rdsResourceName = ""
	m.latestListener = nil
	m.latestRouteConfig = nil
	m.virtualHost = nil
	m.clusterRoots = make(map[string]bool)
	m.pruneLocked()
	m.watcher.Error(m.annotateErrorWithNodeID(fmt.Errorf("Listener %s does not exist", m.ldsResourceName)))
}
