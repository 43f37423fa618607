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

// Package model defines the typed views of array side objects shared between
// the storage clients and the replication orchestration.
package model

// LunInfo is the subset of LUN attributes the replication core consumes.
type LunInfo struct {
	ID            string
	Name          string
	ParentID      string
	Capacity      int64
	WWN           string
	RunningStatus string
	HealthStatus  string
	AllocType     string
}

// PoolInfo describes a storage pool on one array.
type PoolInfo struct {
	ID   string
	Name string
}

// RemoteDevice describes a peer array registered on the local array.
type RemoteDevice struct {
	ID            string
	Name          string
	SN            string
	WWN           string
	RunningStatus string
	HealthStatus  string
}

// PairInfo is the observed state of a replication pair.
type PairInfo struct {
	ID               string
	LocalResID       string
	RemoteResID      string
	RemoteDeviceID   string
	ReplicationModel string
	RunningStatus    string
	HealthStatus     string
	IsPrimary        bool
	SecResAccess     string
}

// MetroDomainInfo describes a hyper metro replication domain.
type MetroDomainInfo struct {
	ID            string
	Name          string
	RunningStatus string
}

// MetroGroupInfo is the observed state of a metro consistency group.
type MetroGroupInfo struct {
	ID            string
	Name          string
	DomainID      string
	RunningStatus string
	HealthStatus  string
	IsPrimary     bool
}

// MetroPairInfo is the observed state of one metro pair.
type MetroPairInfo struct {
	ID            string
	DomainID      string
	LocalObjID    string
	RemoteObjID   string
	RunningStatus string
	HealthStatus  string
	IsPrimary     bool
	IsInGroup     bool
	GroupID       string
}

// SystemInfo identifies one array.
type SystemInfo struct {
	ID        string
	Name      string
	SN        string
	WWN       string
	ProductID string
}
