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

// Package config loads and validates the replication driver configuration.
// The file is YAML with the same field names as the JSON tags below.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"

	"huawei-replication-driver/pkg/constants"
)

// ArrayConfig describes one storage array endpoint. Urls are tried in order
// until a login succeeds.
type ArrayConfig struct {
	Name     string   `json:"name"`
	Urls     []string `json:"urls"`
	User     string   `json:"user"`
	Password string   `json:"password"`
}

// ReplicationConfig carries the pair level tunings. All intervals and
// timeouts are in seconds; zero values fall back to the driver defaults.
type ReplicationConfig struct {
	RemotePool  string `json:"remotePool"`
	MetroDomain string `json:"metroDomain,omitempty"`
	SyncSpeed   string `json:"syncSpeed,omitempty"`
	AsyncPeriod int    `json:"asyncPeriodSeconds,omitempty"`

	WaitIntervalSeconds     int `json:"waitIntervalSeconds,omitempty"`
	WaitTimeoutSeconds      int `json:"waitTimeoutSeconds,omitempty"`
	SyncWaitIntervalSeconds int `json:"syncWaitIntervalSeconds,omitempty"`
	SyncWaitTimeoutSeconds  int `json:"syncWaitTimeoutSeconds,omitempty"`
	LunWaitTimeoutSeconds   int `json:"lunWaitTimeoutSeconds,omitempty"`
}

// DriverConfig is the root of the configuration file.
type DriverConfig struct {
	LogLevel    string            `json:"logLevel,omitempty"`
	Local       ArrayConfig       `json:"local"`
	Remote      ArrayConfig       `json:"remote"`
	Replication ReplicationConfig `json:"replication"`
}

var validSyncSpeeds = map[string]struct{}{
	constants.ReplicaSpeedLow:     {},
	constants.ReplicaSpeedMedium:  {},
	constants.ReplicaSpeedHigh:    {},
	constants.ReplicaSpeedHighest: {},
}

func (a *ArrayConfig) validate(side string) error {
	if len(a.Urls) == 0 {
		return fmt.Errorf("no management urls configured for %s array", side)
	}
	if a.User == "" || a.Password == "" {
		return fmt.Errorf("user and password must be configured for %s array", side)
	}
	return nil
}

// Validate rejects configurations the driver cannot run with. Optional
// tunings are not checked here, they default inside the driver.
func (c *DriverConfig) Validate() error {
	if err := c.Local.validate("local"); err != nil {
		return err
	}
	if err := c.Remote.validate("remote"); err != nil {
		return err
	}

	if c.Replication.RemotePool == "" {
		return fmt.Errorf("replication.remotePool must be configured")
	}

	if speed := c.Replication.SyncSpeed; speed != "" {
		if _, ok := validSyncSpeeds[speed]; !ok {
			return fmt.Errorf("invalid replication.syncSpeed %s, must be 1, 2, 3 or 4", speed)
		}
	}

	return nil
}

// Load reads and validates the configuration file at path.
func Load(path string) (*DriverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s error: %v", path, err)
	}

	var conf DriverConfig
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("unmarshal config file %s error: %v", path, err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &conf, nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// WaitInterval returns the configured poll interval, zero when unset.
func (r *ReplicationConfig) WaitInterval() time.Duration { return seconds(r.WaitIntervalSeconds) }

// WaitTimeout returns the configured state wait timeout, zero when unset.
func (r *ReplicationConfig) WaitTimeout() time.Duration { return seconds(r.WaitTimeoutSeconds) }

// SyncWaitInterval returns the configured sync poll interval, zero when unset.
func (r *ReplicationConfig) SyncWaitInterval() time.Duration {
	return seconds(r.SyncWaitIntervalSeconds)
}

// SyncWaitTimeout returns the configured sync wait timeout, zero when unset.
func (r *ReplicationConfig) SyncWaitTimeout() time.Duration {
	return seconds(r.SyncWaitTimeoutSeconds)
}

// LunWaitTimeout returns the configured LUN online timeout, zero when unset.
func (r *ReplicationConfig) LunWaitTimeout() time.Duration {
	return seconds(r.LunWaitTimeoutSeconds)
}
