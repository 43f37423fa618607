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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huawei-replication-driver/pkg/constants"
)

func (f *fakeArray) addMetroPair(status, groupID string) *fabricMetroPair {
	pair := &fabricMetroPair{
		id:            f.fabric.newID("hmpair"),
		domainID:      "domain-1",
		runningStatus: status,
		healthStatus:  "1",
		groupID:       groupID,
	}
	f.fabric.metroPairs[pair.id] = pair
	return pair
}

func (f *fakeArray) addGroup(status string) *fabricGroup {
	group := &fabricGroup{
		id:            f.fabric.newID("cg"),
		name:          "grp",
		domainID:      "domain-1",
		runningStatus: status,
		healthStatus:  "1",
	}
	f.fabric.groups[group.id] = group
	return group
}

func TestCreateGroup(t *testing.T) {
	local, remote := newFakeFabric()
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	groupID, err := manager.CreateGroup(context.TODO(), "grp")

	require.NoError(t, err)
	group := local.fabric.groups[groupID]
	require.NotNil(t, group)
	assert.Equal(t, "grp", group.name)
	assert.Equal(t, "domain-1", group.domainID)
}

func TestCreateGroupRequiresConfiguredDomain(t *testing.T) {
	local, remote := newFakeFabric()
	conf := testConfig()
	conf.MetroDomain = ""
	manager := NewMetroGroupManager(NewBackendContext(local, remote, conf))

	_, err := manager.CreateGroup(context.TODO(), "grp")

	require.Error(t, err)
	assert.Equal(t, 0, local.calls["CreateMetroGroup"])
}

func TestCreateGroupRejectsAbnormalDomain(t *testing.T) {
	local, remote := newFakeFabric()
	local.fabric.domains["md0"].RunningStatus = constants.MetroRunningStatusInvalid
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	_, err := manager.CreateGroup(context.TODO(), "grp")

	require.Error(t, err)
	assert.Equal(t, 0, local.calls["CreateMetroGroup"])
}

func TestCreateMetroReplicaStandalone(t *testing.T) {
	local, remote := newFakeFabric()
	localLun := local.addLun("vol1")
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	update, err := manager.CreateMetroReplica(context.TODO(), &Volume{ID: "v1", Name: "vol1"}, "")

	require.NoError(t, err)
	assert.Equal(t, constants.ReplicationStatusAvailable, update.ReplicationStatus)

	data, err := ParseDriverData(update.DriverData)
	require.NoError(t, err)

	pair := local.fabric.metroPairs[data.PairID]
	require.NotNil(t, pair)
	assert.Equal(t, localLun.ID, pair.localObjID)
	assert.Equal(t, data.RemoteLunID, pair.remoteObjID)
	assert.Equal(t, constants.MetroRunningStatusNormal, pair.runningStatus)

	remoteLun, err := remote.GetLunByName(context.TODO(), "vol1")
	require.NoError(t, err)
	assert.NotNil(t, remoteLun)
}

func TestCreateMetroReplicaInGroup(t *testing.T) {
	local, remote := newFakeFabric()
	local.addLun("vol1")
	group := local.addGroup(constants.MetroRunningStatusNormal)
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	update, err := manager.CreateMetroReplica(context.TODO(),
		&Volume{ID: "v1", Name: "vol1"}, group.id)

	require.NoError(t, err)

	data, err := ParseDriverData(update.DriverData)
	require.NoError(t, err)
	assert.Equal(t, group.id, local.fabric.metroPairs[data.PairID].groupID)

	// A mirroring group is stopped before membership changes and resumed after.
	assert.Equal(t, 1, local.calls["StopGroup"])
	assert.Equal(t, 1, local.calls["SyncGroup"])
	assert.Equal(t, constants.MetroRunningStatusNormal, group.runningStatus)
}

func TestCreateMetroReplicaRollsBackOnPairFailure(t *testing.T) {
	local, remote := newFakeFabric()
	local.addLun("vol1")
	local.errs["CreateMetroPair"] = assert.AnError
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	_, err := manager.CreateMetroReplica(context.TODO(), &Volume{ID: "v1", Name: "vol1"}, "")

	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, remote.calls["CreateLun"])
	assert.Equal(t, 1, remote.calls["DeleteLun"])
}

func TestUpdateGroupMovesPairs(t *testing.T) {
	local, remote := newFakeFabric()
	group := local.addGroup(constants.MetroRunningStatusNormal)
	inGroup := local.addMetroPair(constants.MetroRunningStatusNormal, group.id)
	outside := local.addMetroPair(constants.MetroRunningStatusNormal, "")
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	err := manager.UpdateGroup(context.TODO(), group.id,
		[]string{outside.id}, []string{inGroup.id})

	require.NoError(t, err)
	assert.Equal(t, "", inGroup.groupID)
	assert.Equal(t, group.id, outside.groupID)
	assert.Equal(t, 1, local.calls["StopGroup"])
	assert.Equal(t, 2, local.calls["StopMetroPair"])
	assert.Equal(t, 1, local.calls["SyncGroup"])
	assert.Equal(t, constants.MetroRunningStatusNormal, group.runningStatus)
}

func TestUpdateGroupSkipsStopsWhenAlreadyPaused(t *testing.T) {
	local, remote := newFakeFabric()
	group := local.addGroup(constants.MetroRunningStatusPause)
	pair := local.addMetroPair(constants.MetroRunningStatusPause, "")
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	err := manager.UpdateGroup(context.TODO(), group.id, []string{pair.id}, nil)

	require.NoError(t, err)
	assert.Equal(t, 0, local.calls["StopGroup"])
	assert.Equal(t, 0, local.calls["StopMetroPair"])
	assert.Equal(t, 1, local.calls["SyncGroup"])
}

func TestUpdateGroupSkipsSyncWhenEmptied(t *testing.T) {
	local, remote := newFakeFabric()
	group := local.addGroup(constants.MetroRunningStatusNormal)
	member := local.addMetroPair(constants.MetroRunningStatusNormal, group.id)
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	err := manager.UpdateGroup(context.TODO(), group.id, nil, []string{member.id})

	require.NoError(t, err)
	assert.Equal(t, "", member.groupID)
	assert.Equal(t, 0, local.calls["SyncGroup"])
}

func TestDeleteGroupTearsDownMembers(t *testing.T) {
	local, remote := newFakeFabric()
	group := local.addGroup(constants.MetroRunningStatusNormal)
	member := local.addMetroPair(constants.MetroRunningStatusNormal, group.id)
	remoteLun := remote.addLun("vol1")

	data := &DriverData{PairID: member.id, RemoteLunID: remoteLun.ID}
	raw, err := data.Encode()
	require.NoError(t, err)

	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))
	updates := manager.DeleteGroup(context.TODO(), group.id,
		[]*Volume{{ID: "v1", Name: "vol1", DriverData: raw}})

	require.Len(t, updates, 1)
	assert.Equal(t, constants.ReplicationStatusDisabled, updates[0].ReplicationStatus)
	assert.Nil(t, local.fabric.groups[group.id])
	assert.Nil(t, local.fabric.metroPairs[member.id])
	assert.Nil(t, remote.luns[remoteLun.ID])
}

func TestDeleteMetroReplicaIsIdempotent(t *testing.T) {
	local, remote := newFakeFabric()
	manager := NewMetroGroupManager(NewBackendContext(local, remote, testConfig()))

	data := &DriverData{PairID: "gone-pair", RemoteLunID: "gone-lun"}
	raw, err := data.Encode()
	require.NoError(t, err)

	err = manager.DeleteMetroReplica(context.TODO(), &Volume{ID: "v1", DriverData: raw})

	require.NoError(t, err)
	assert.Equal(t, 0, local.calls["DeleteMetroPair"])
	assert.Equal(t, 0, remote.calls["DeleteLun"])
}
