/*
 *  Copyright (c) Huawei Technologies Co., Ltd. 2022-2023. All rights reserved.
 *
 *  Licensed under the Apache License, Version 2.0 (the "License");
 *  you may not use this file except in compliance with the License.
 *  You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

package replication

import (
	"sync"
	"time"
)

const (
	defaultWaitInterval = 5 * time.Second
	defaultWaitTimeout  = 2 * time.Minute

	defaultSyncWaitInterval = 5 * time.Second
	defaultSyncWaitTimeout  = 6 * time.Hour

	defaultLunWaitTimeout = 30 * time.Minute

	defaultAsyncPeriod = 60
)

// Config carries the replication settings one backend pair is created with.
// The values come from the external scheduler's configuration, not parsed here.
type Config struct {
	RemotePool  string
	MetroDomain string

	SyncSpeed   string
	AsyncPeriod int

	WaitInterval     time.Duration
	WaitTimeout      time.Duration
	SyncWaitInterval time.Duration
	SyncWaitTimeout  time.Duration
	LunWaitTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.WaitInterval <= 0 {
		c.WaitInterval = defaultWaitInterval
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = defaultWaitTimeout
	}
	if c.SyncWaitInterval <= 0 {
		c.SyncWaitInterval = defaultSyncWaitInterval
	}
	if c.SyncWaitTimeout <= 0 {
		c.SyncWaitTimeout = defaultSyncWaitTimeout
	}
	if c.LunWaitTimeout <= 0 {
		c.LunWaitTimeout = defaultLunWaitTimeout
	}
	if c.AsyncPeriod <= 0 {
		c.AsyncPeriod = defaultAsyncPeriod
	}
	return c
}

// BackendContext owns the two array clients and the assignment of which one
// is currently "local". Failover and failback swap the assignment; everything
// else reads it. The exclusive guard makes a torn swap impossible for
// concurrent per volume operations.
type BackendContext struct {
	mu     sync.RWMutex
	local  ArrayClient
	remote ArrayClient
	conf   Config
}

// NewBackendContext binds the two arrays and the replication config.
func NewBackendContext(local, remote ArrayClient, conf Config) *BackendContext {
	return &BackendContext{
		local:  local,
		remote: remote,
		conf:   conf.withDefaults(),
	}
}

// Snapshot returns a consistent (local, remote) view. Per volume operations
// take one snapshot at entry and use it throughout, so a concurrent swap can
// not be observed halfway.
func (b *BackendContext) Snapshot() (ArrayClient, ArrayClient) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.local, b.remote
}

// LocalClient returns the array currently addressed as local.
func (b *BackendContext) LocalClient() ArrayClient {
	local, _ := b.Snapshot()
	return local
}

// RemoteClient returns the array currently addressed as remote.
func (b *BackendContext) RemoteClient() ArrayClient {
	_, remote := b.Snapshot()
	return remote
}

// SwapClients exchanges the local and remote assignment. Only failover and
// failback call this, after all per pair work has finished.
func (b *BackendContext) SwapClients() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.local, b.remote = b.remote, b.local
}

// Config returns the replication settings of this backend pair.
func (b *BackendContext) Config() Config {
	return b.conf
}
