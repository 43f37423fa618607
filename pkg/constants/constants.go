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

// Package constants holds the storage side status codes and the volume side
// replication states shared by all replication components.
package constants

// Replication models of a pair. The async model carries a periodic
// synchronize schedule on the array, the sync model does not.
const (
	ReplicationModelSync  = "sync"
	ReplicationModelAsync = "async"
)

// Array side values of the REPLICATIONMODEL attribute.
const (
	ReplicaModelValueSync  = "1"
	ReplicaModelValueAsync = "2"
)

// Pair creation attributes shared by both models.
const (
	ReplicaLocalResTypeLun    = "11"
	ReplicaRecoveryPolicyAuto = "1"
	ReplicaSyncTypeTimedWait  = "2"
)

// Running status values reported by the array for a replication pair.
const (
	ReplicaRunningStatusNormal      = "1"
	ReplicaRunningStatusInitialSync = "21"
	ReplicaRunningStatusSyncing     = "23"
	ReplicaRunningStatusSplit       = "26"
	ReplicaRunningStatusInterrupted = "34"
	ReplicaRunningStatusInvalid     = "35"
)

// Health status values reported by the array for a replication pair.
const (
	ReplicaHealthStatusNormal = "1"
	ReplicaHealthStatusFault  = "2"
)

// Secondary resource access modes of a replication pair.
const (
	ReplicaSecondAccessReadOnly  = "1"
	ReplicaSecondAccessReadWrite = "2"
)

// Synchronize speed levels for async pairs.
const (
	ReplicaSpeedLow     = "1"
	ReplicaSpeedMedium  = "2"
	ReplicaSpeedHigh    = "3"
	ReplicaSpeedHighest = "4"
)

// Running status values of a LUN.
const (
	LunRunningStatusOnline  = "27"
	LunRunningStatusOffline = "28"
)

// Running status values of a hyper metro pair and consistency group.
const (
	MetroRunningStatusNormal  = "1"
	MetroRunningStatusSyncing = "23"
	MetroRunningStatusInvalid = "35"
	MetroRunningStatusPause   = "41"
	MetroRunningStatusError   = "94"
	MetroRunningStatusToSync  = "100"
)

// MetroHealthStatusFault is the fault health status of a metro pair or group.
const MetroHealthStatusFault = "2"

// MetroResourceTypeLun is the HCRESOURCETYPE of a LUN backed metro pair.
const MetroResourceTypeLun = 1

// MetroDomainRunningStatusNormal is the only domain status groups may bind to.
const MetroDomainRunningStatusNormal = "1"

// Running status of a remote device link usable for pair creation.
const (
	RemoteDeviceRunningStatusLinkUp = "10"
	RemoteDeviceHealthStatusNormal  = "1"
)

// Replication states persisted on the volume record.
const (
	ReplicationStatusDisabled   = "disabled"
	ReplicationStatusAvailable  = "available"
	ReplicationStatusFailedOver = "failed-over"
	ReplicationStatusError      = "error"
)
