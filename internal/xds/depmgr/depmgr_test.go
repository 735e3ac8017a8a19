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
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/enderteszla/xds-depmgr/internal/xds/xdsclient/xdsresource"
)

const defaultTestTimeout = 5 * time.Second

// testWatcher is a ConfigWatcher that forwards updates and errors to
// channels for the test to assert against.
type testWatcher struct {
	updateCh chan *xdsresource.XDSConfig
	errorCh  chan error
}

func newTestWatcher() *testWatcher {
	return &testWatcher{
		updateCh: make(chan *xdsresource.XDSConfig, 1),
		errorCh:  make(chan error, 1),
	}
}

func (w *testWatcher) Update(cfg *xdsresource.XDSConfig) {
	select {
	case w.updateCh <- cfg:
	default:
		<-w.updateCh
		w.updateCh <- cfg
	}
}

func (w *testWatcher) Error(err error) {
	select {
	case w.errorCh <- err:
	default:
		<-w.errorCh
		w.errorCh <- err
	}
}

func (w *testWatcher) wantUpdate(t *testing.T) *xdsresource.XDSConfig {
	t.Helper()
	select {
	case cfg := <-w.updateCh:
		return cfg
	case err := <-w.errorCh:
		t.Fatalf("got error instead of update: %v", err)
	case <-time.After(defaultTestTimeout):
		t.Fatalf("timed out waiting for update")
	}
	return nil
}

func (w *testWatcher) wantError(t *testing.T) error {
	t.Helper()
	select {
	case err := <-w.errorCh:
		return err
	case cfg := <-w.updateCh:
		t.Fatalf("got update instead of error: %+v", cfg)
	case <-time.After(defaultTestTimeout):
		t.Fatalf("timed out waiting for error")
	}
	return nil
}

const (
	testListenerName = "listener-name"
	testRouteName    = "route-config-name"
	testAuthority    = "service-name"
	testClusterName  = "cluster-name"
	testEDSName      = "eds-service-name"
)

func newTestManager(t *testing.T) (*DependencyManager, *fakeXDSClient, *testWatcher) {
	t.Helper()
	client := newFakeXDSClient(uuid.New().String())
	watcher := newTestWatcher()
	m := New(testListenerName, testAuthority, client, watcher)
	t.Cleanup(m.Close)
	return m, client, watcher
}

func basicRouteConfig(clusterName string) *xdsresource.RouteConfigUpdate {
	return &xdsresource.RouteConfigUpdate{
		VirtualHosts: []xdsresource.VirtualHost{
			{
				Domains: []string{testAuthority},
				Routes: []xdsresource.Route{
					{ActionType: xdsresource.RouteActionCluster, Cluster: clusterName},
				},
			},
		},
	}
}

// TestEDSClusterEndToEnd drives a Listener -> RouteConfig -> EDS Cluster ->
// Endpoints chain through to a snapshot, covering the scenario-A happy path.
func TestEDSClusterEndToEnd(t *testing.T) {
	_, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, basicRouteConfig(testClusterName))
	client.pushClusterUpdate(testClusterName, &xdsresource.ClusterUpdate{
		ClusterName:    testClusterName,
		ClusterType:    xdsresource.ClusterTypeEDS,
		EDSServiceName: testEDSName,
	})

	cla := xdsresource.RawClusterLoadAssignment{
		Endpoints: []xdsresource.RawLocalityLbEndpoints{{
			Weight: 1,
			Endpoints: []xdsresource.RawLbEndpoint{{
				Address: xdsresource.Address{Host: "10.0.0.1", Port: 8080},
			}},
		}},
	}
	client.pushEndpointsUpdate(testEDSName, &cla)

	cfg := watcher.wantUpdate(t)
	if cfg.VirtualHost == nil || len(cfg.VirtualHost.Domains) == 0 || cfg.VirtualHost.Domains[0] != testAuthority {
		t.Fatalf("got virtual host %+v, want domain %q", cfg.VirtualHost, testAuthority)
	}
	cr, ok := cfg.Clusters[testClusterName]
	if !ok {
		t.Fatalf("got no cluster result for %q", testClusterName)
	}
	if cr.Err != nil {
		t.Fatalf("got cluster error %v, want none", cr.Err)
	}
	if len(cr.Config.EndpointConfig.Endpoints.Priorities) != 1 {
		t.Fatalf("got %+v, want the normalized endpoints pushed above", cr.Config.EndpointConfig)
	}
}

// TestEDSClusterServiceNameChangeUpdatesSnapshot verifies that when a CDS
// update moves an already-Ok EDS cluster to a new edsServiceName, the
// emitted snapshot's ClusterConfig.Cluster reflects that new CDS update
// (notably the new EDSServiceName) rather than the one from before the
// transition.
func TestEDSClusterServiceNameChangeUpdatesSnapshot(t *testing.T) {
	_, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, basicRouteConfig(testClusterName))
	client.pushClusterUpdate(testClusterName, &xdsresource.ClusterUpdate{
		ClusterName:    testClusterName,
		ClusterType:    xdsresource.ClusterTypeEDS,
		EDSServiceName: testEDSName,
	})
	client.pushEndpointsUpdate(testEDSName, &xdsresource.RawClusterLoadAssignment{})
	watcher.wantUpdate(t)

	const newEDSName = "eds-service-name-v2"
	client.pushClusterUpdate(testClusterName, &xdsresource.ClusterUpdate{
		ClusterName:    testClusterName,
		ClusterType:    xdsresource.ClusterTypeEDS,
		EDSServiceName: newEDSName,
	})
	if client.hasEndpointsWatch(testEDSName) {
		t.Fatalf("old EDS watch for %q still registered after edsServiceName changed to %q", testEDSName, newEDSName)
	}
	client.pushEndpointsUpdate(newEDSName, &xdsresource.RawClusterLoadAssignment{})

	cfg := watcher.wantUpdate(t)
	cr, ok := cfg.Clusters[testClusterName]
	if !ok {
		t.Fatalf("got no cluster result for %q", testClusterName)
	}
	if cr.Config.Cluster.EDSServiceName != newEDSName {
		t.Fatalf("got snapshot EDSServiceName %q, want %q (stale CDS update not replaced)", cr.Config.Cluster.EDSServiceName, newEDSName)
	}
}

// TestAggregateClusterForest verifies that an aggregate cluster's children
// are added to the forest and each produces its own leaf entry.
func TestAggregateClusterForest(t *testing.T) {
	_, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, basicRouteConfig("aggregate-cluster"))
	client.pushClusterUpdate("aggregate-cluster", &xdsresource.ClusterUpdate{
		ClusterName:             "aggregate-cluster",
		ClusterType:             xdsresource.ClusterTypeAggregate,
		PrioritizedClusterNames: []string{"child-a", "child-b"},
	})

	// The forest should now have a pending CDS watch on both children; push
	// updates for both before expecting a snapshot, since neither child is
	// ready until it has an outcome.
	client.pushClusterUpdate("child-a", &xdsresource.ClusterUpdate{
		ClusterName: "child-a", ClusterType: xdsresource.ClusterTypeEDS, EDSServiceName: "eds-a",
	})
	client.pushEndpointsUpdate("eds-a", &xdsresource.RawClusterLoadAssignment{})
	client.pushClusterUpdate("child-b", &xdsresource.ClusterUpdate{
		ClusterName: "child-b", ClusterType: xdsresource.ClusterTypeEDS, EDSServiceName: "eds-b",
	})
	client.pushEndpointsUpdate("eds-b", &xdsresource.RawClusterLoadAssignment{})

	cfg := watcher.wantUpdate(t)
	for _, name := range []string{"aggregate-cluster", "child-a", "child-b"} {
		if _, ok := cfg.Clusters[name]; !ok {
			t.Errorf("got no cluster result for %q in %+v", name, cfg.Clusters)
		}
	}
	agg := cfg.Clusters["aggregate-cluster"]
	if len(agg.Config.AggregateConfig.LeafClusters) != 2 {
		t.Fatalf("got leaf clusters %+v, want 2", agg.Config.AggregateConfig.LeafClusters)
	}
}

// TestAggregateToEDSTransitionPrunesChildren verifies that when a cluster
// moves from AGGREGATE to EDS, its former children's CDS watches are
// cancelled and they no longer appear in the snapshot's cluster map.
func TestAggregateToEDSTransitionPrunesChildren(t *testing.T) {
	_, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, basicRouteConfig(testClusterName))
	client.pushClusterUpdate(testClusterName, &xdsresource.ClusterUpdate{
		ClusterName:             testClusterName,
		ClusterType:             xdsresource.ClusterTypeAggregate,
		PrioritizedClusterNames: []string{"child-a", "child-b"},
	})
	client.pushClusterUpdate("child-a", &xdsresource.ClusterUpdate{
		ClusterName: "child-a", ClusterType: xdsresource.ClusterTypeEDS, EDSServiceName: "eds-a",
	})
	client.pushEndpointsUpdate("eds-a", &xdsresource.RawClusterLoadAssignment{})
	client.pushClusterUpdate("child-b", &xdsresource.ClusterUpdate{
		ClusterName: "child-b", ClusterType: xdsresource.ClusterTypeEDS, EDSServiceName: "eds-b",
	})
	client.pushEndpointsUpdate("eds-b", &xdsresource.RawClusterLoadAssignment{})
	watcher.wantUpdate(t)

	client.pushClusterUpdate(testClusterName, &xdsresource.ClusterUpdate{
		ClusterName:    testClusterName,
		ClusterType:    xdsresource.ClusterTypeEDS,
		EDSServiceName: testEDSName,
	})
	client.pushEndpointsUpdate(testEDSName, &xdsresource.RawClusterLoadAssignment{})

	cfg := watcher.wantUpdate(t)
	for _, name := range []string{"child-a", "child-b"} {
		if client.hasClusterWatch(name) {
			t.Errorf("want CDS watch on former aggregate child %q cancelled after AGGREGATE->EDS transition", name)
		}
		if _, ok := cfg.Clusters[name]; ok {
			t.Errorf("got former aggregate child %q still in snapshot cluster map %+v", name, cfg.Clusters)
		}
	}
	if _, ok := cfg.Clusters[testClusterName]; !ok {
		t.Fatalf("got no cluster result for %q", testClusterName)
	}
}

// TestClusterDoesNotExistErrorString verifies invariant 12: the per-cluster
// does-not-exist error carries the exact details string, with no node-ID
// annotation wrapped around it.
func TestClusterDoesNotExistErrorString(t *testing.T) {
	_, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, basicRouteConfig(testClusterName))
	client.pushClusterDoesNotExist(testClusterName)

	cfg := watcher.wantUpdate(t)
	cr, ok := cfg.Clusters[testClusterName]
	if !ok {
		t.Fatalf("got no cluster result for %q", testClusterName)
	}
	if cr.Err == nil {
		t.Fatalf("got nil error, want a does-not-exist error")
	}
	want := "Cluster resource " + testClusterName + " does not exist"
	st, ok := status.FromError(cr.Err)
	if !ok || st.Code() != codes.Unavailable || st.Message() != want {
		t.Fatalf("got error %q, want an UNAVAILABLE status with exactly the details %q (no node-ID annotation)", cr.Err.Error(), want)
	}
}

// TestRouteConfigNoMatchingVirtualHost verifies that a route configuration
// with no virtual host matching the dataplane authority surfaces as a
// top-level, node-ID-annotated error.
func TestRouteConfigNoMatchingVirtualHost(t *testing.T) {
	_, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, &xdsresource.RouteConfigUpdate{
		VirtualHosts: []xdsresource.VirtualHost{{Domains: []string{"some-other-authority"}}},
	})

	err := watcher.wantError(t)
	if !strings.Contains(err.Error(), "No matching route") {
		t.Fatalf("got error %q, want it to mention no matching route", err)
	}
	if !strings.Contains(err.Error(), "xDS node id") {
		t.Fatalf("got error %q, want it annotated with the node ID", err)
	}
}

// TestClusterSubscriptionRefCounting exercises component F: a cluster
// subscribed to independently of the route config is added to the forest
// and only removed once every subscriber releases it.
func TestClusterSubscriptionRefCounting(t *testing.T) {
	m, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, basicRouteConfig(testClusterName))
	client.pushClusterDoesNotExist(testClusterName)
	watcher.wantUpdate(t) // drain the snapshot triggered by the route config.

	const subscribedName = "subscribed-only-cluster"
	r1 := m.AddClusterSubscription(subscribedName)
	r2 := m.AddClusterSubscription(subscribedName)

	if !client.hasClusterWatch(subscribedName) {
		t.Fatalf("want a CDS watch on %q after subscribing", subscribedName)
	}

	r1.Release()
	if !client.hasClusterWatch(subscribedName) {
		t.Fatalf("want the CDS watch on %q to survive one release out of two", subscribedName)
	}

	r2.Release()
	if client.hasClusterWatch(subscribedName) {
		t.Fatalf("want the CDS watch on %q cancelled after the last release", subscribedName)
	}

	// A second release must be a no-op, not a double-decrement.
	r2.Release()
}

// TestEndpointsTransientErrorRetainsLastKnown verifies that an EDS error
// arriving after at least one successful update does not clear previously
// delivered endpoints or surface as a resolutionNote.
func TestEndpointsTransientErrorRetainsLastKnown(t *testing.T) {
	_, client, watcher := newTestManager(t)

	client.pushListenerUpdate(testListenerName, &xdsresource.ListenerUpdate{RouteConfigName: testRouteName})
	client.pushRouteConfigUpdate(testRouteName, basicRouteConfig(testClusterName))
	client.pushClusterUpdate(testClusterName, &xdsresource.ClusterUpdate{
		ClusterName: testClusterName, ClusterType: xdsresource.ClusterTypeEDS, EDSServiceName: testEDSName,
	})
	good := xdsresource.RawClusterLoadAssignment{
		Endpoints: []xdsresource.RawLocalityLbEndpoints{{
			Weight:    1,
			Endpoints: []xdsresource.RawLbEndpoint{{Address: xdsresource.Address{Host: "1.2.3.4"}}},
		}},
	}
	client.pushEndpointsUpdate(testEDSName, &good)
	watcher.wantUpdate(t)

	client.pushEndpointsError(testEDSName, context.DeadlineExceeded)

	select {
	case cfg := <-watcher.updateCh:
		cr := cfg.Clusters[testClusterName]
		if cr.Config.EndpointConfig.ResolutionNote != nil {
			t.Fatalf("got resolutionNote %v after a transient error following success, want nil", cr.Config.EndpointConfig.ResolutionNote)
		}
		if len(cr.Config.EndpointConfig.Endpoints.Priorities) == 0 {
			t.Fatalf("got no endpoints, want the last successfully received set retained")
		}
	case <-time.After(200 * time.Millisecond):
		// No new snapshot at all is also an acceptable outcome: the error
		// is absorbed silently and nothing downstream-visible changed.
	}
}
