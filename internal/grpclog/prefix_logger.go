/*
 *
 * Copyright 2020 gRPC authors.
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
 *
 */

// Package grpclog defines a prefix-decorated logger built on top of the
// public grpclog component logger.
package grpclog

import (
	"fmt"

	"google.golang.org/grpc/grpclog"
)

// PrefixLogger decorates every log line emitted through a component logger
// with a fixed prefix, so log lines from a given DependencyManager instance
// can be told apart from others sharing the same component.
type PrefixLogger struct {
	logger grpclog.DepthLoggerV2
	prefix string
}

// NewPrefixLogger creates a PrefixLogger with the given prefix, which is
// prepended to all subsequent log messages.
func NewPrefixLogger(logger grpclog.DepthLoggerV2, prefix string) *PrefixLogger {
	return &PrefixLogger{logger: logger, prefix: prefix}
}

// Infof does info-level logging with the configured prefix.
func (pl *PrefixLogger) Infof(format string, args ...any) {
	if pl == nil {
		return
	}
	format = pl.prefix + format
	pl.logger.InfoDepth(1, fmt.Sprintf(format, args...))
}

// Warningf does warning-level logging with the configured prefix.
func (pl *PrefixLogger) Warningf(format string, args ...any) {
	if pl == nil {
		return
	}
	format = pl.prefix + format
	pl.logger.WarningDepth(1, fmt.Sprintf(format, args...))
}

// Errorf does error-level logging with the configured prefix.
func (pl *PrefixLogger) Errorf(format string, args ...any) {
	if pl == nil {
		return
	}
	format = pl.prefix + format
	pl.logger.ErrorDepth(1, fmt.Sprintf(format, args...))
}

// V reports whether verbosity level l is enabled.
func (pl *PrefixLogger) V(l int) bool {
	if pl == nil {
		return false
	}
	return grpclog.V(l)
}
