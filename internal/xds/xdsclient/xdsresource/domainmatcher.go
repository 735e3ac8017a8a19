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

import "strings"

// domainMatchClass ranks how a domain pattern can match an authority.
// Lower is better; domainMatchInvalid never matches anything.
type domainMatchClass int

const (
	domainMatchExact domainMatchClass = iota
	domainMatchSuffix
	domainMatchPrefix
	domainMatchUniverse
	domainMatchInvalid
)

// classify returns the pattern class of a single domains[] entry.
func classify(pattern string) domainMatchClass {
	switch {
	case pattern == "":
		return domainMatchInvalid
	case pattern == "*":
		return domainMatchUniverse
	case strings.HasPrefix(pattern, "*"):
		return domainMatchSuffix
	case strings.HasSuffix(pattern, "*"):
		return domainMatchPrefix
	case strings.Contains(pattern, "*"):
		return domainMatchInvalid
	default:
		return domainMatchExact
	}
}

// matches reports whether pattern, of the given class, matches authority.
func matches(class domainMatchClass, pattern, authority string) bool {
	switch class {
	case domainMatchUniverse:
		return true
	case domainMatchPrefix:
		return strings.HasPrefix(authority, strings.TrimSuffix(pattern, "*"))
	case domainMatchSuffix:
		return strings.HasSuffix(authority, strings.TrimPrefix(pattern, "*"))
	case domainMatchExact:
		return pattern == authority
	default:
		return false
	}
}

// FindBestMatchingVirtualHost returns a pointer to the virtual host within
// vHosts whose domains field offers the best match against authority, or
// nil if none match. Best is defined as: smallest (best) pattern class,
// tie-broken by longest pattern; among equal class and length, the first
// virtual host encountered wins. Traversal short-circuits on an EXACT hit.
func FindBestMatchingVirtualHost(authority string, vHosts []VirtualHost) *VirtualHost {
	var (
		best      *VirtualHost
		bestClass = domainMatchInvalid
		bestLen   int
	)
	for i := range vHosts {
		vh := &vHosts[i]
		for _, pattern := range vh.Domains {
			class := classify(pattern)
			if class == domainMatchInvalid || !matches(class, pattern, authority) {
				continue
			}
			if best != nil && (class > bestClass || (class == bestClass && len(pattern) <= bestLen)) {
				continue
			}
			best = vh
			bestClass = class
			bestLen = len(pattern)
			if class == domainMatchExact {
				return best
			}
		}
	}
	return best
}
