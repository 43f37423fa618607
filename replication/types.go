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

// Package replication orchestrates the lifecycle of mirrored pairs and metro
// consistency groups between a local and a remote array.
package replication

import (
	"encoding/json"
	"fmt"

	"huawei-replication-driver/storage/client"
)

// ArrayClient is the capability surface one array must expose. Both the
// local and the remote array are consumed through this same interface; which
// one is "local" is owned by the BackendContext.
type ArrayClient interface {
	client.Lun
	client.System
	client.Replication
	client.HyperMetro

	// GetBackendID returns the configured identifier of this array.
	GetBackendID() string
}

// Volume is the external volume record referenced by the manager. The pair
// object itself is owned by the manager; the volume only carries the opaque
// driver data and its replication status.
type Volume struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	PoolName          string `json:"poolName,omitempty"`
	Capacity          int64  `json:"capacity,omitempty"`
	ReplicationStatus string `json:"replicationStatus,omitempty"`
	DriverData        string `json:"driverData,omitempty"`
}

// IsReplicated reports whether the volume carries a replication relationship.
func (v *Volume) IsReplicated() bool {
	return v.ReplicationStatus != "" && v.ReplicationStatus != "disabled"
}

// DriverData is the opaque replication metadata persisted on the volume.
type DriverData struct {
	PairID       string `json:"pair_id"`
	RemoteLunID  string `json:"rmt_lun_id"`
	RemoteLunWWN string `json:"rmt_lun_wwn"`
	OldStatus    string `json:"old_status,omitempty"`
}

// ParseDriverData decodes the persisted driver data of one volume.
func ParseDriverData(raw string) (*DriverData, error) {
	if raw == "" {
		return nil, fmt.Errorf("replication driver data is empty")
	}

	var data DriverData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("unmarshal replication driver data %s error: %v", raw, err)
	}
	if data.PairID == "" {
		return nil, fmt.Errorf("replication driver data %s has no pair id", raw)
	}

	return &data, nil
}

// Encode serializes the driver data for persistence on the volume record.
func (d *DriverData) Encode() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal replication driver data error: %v", err)
	}
	return string(raw), nil
}

// VolumeUpdate is the per volume result of a fleet wide operation, folded
// back into the volume record by the caller.
type VolumeUpdate struct {
	VolumeID          string `json:"volumeId"`
	ReplicationStatus string `json:"replicationStatus"`
	DriverData        string `json:"driverData,omitempty"`
}
