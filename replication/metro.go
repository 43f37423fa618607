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
	"fmt"

	"huawei-replication-driver/pkg/constants"
	"huawei-replication-driver/storage/model"
	"huawei-replication-driver/utils/flow"
	"huawei-replication-driver/utils/log"
	"huawei-replication-driver/utils/waiter"
)

// metroActiveStatuses are the running statuses a stop must be issued from.
// Stopping a group or pair in any other state is rejected by the array.
var metroActiveStatuses = []string{
	constants.MetroRunningStatusNormal,
	constants.MetroRunningStatusToSync,
	constants.MetroRunningStatusSyncing,
}

// metroAbnormalStatuses never resolve by waiting.
var metroAbnormalStatuses = []string{
	constants.MetroRunningStatusInvalid,
	constants.MetroRunningStatusPause,
	constants.MetroRunningStatusError,
}

// MetroGroupManager manages synchronous active/active mirrors at consistency
// group granularity. Group level stop and sync are always issued before
// membership changes so a group is never mutated mid transition.
type MetroGroupManager struct {
	backend *BackendContext
}

// NewMetroGroupManager binds a manager to its backend pair.
func NewMetroGroupManager(backend *BackendContext) *MetroGroupManager {
	return &MetroGroupManager{backend: backend}
}

func (m *MetroGroupManager) getMetroDomain(ctx context.Context,
	cli ArrayClient) (*model.MetroDomainInfo, error) {
	name := m.backend.Config().MetroDomain
	if name == "" {
		return nil, fmt.Errorf("no metro domain is configured for this backend")
	}

	domain, err := cli.GetMetroDomainByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if domain == nil {
		return nil, fmt.Errorf("metro domain %s does not exist", name)
	}
	if domain.RunningStatus != constants.MetroDomainRunningStatusNormal {
		return nil, fmt.Errorf("metro domain %s status %s is not normal",
			name, domain.RunningStatus)
	}

	return domain, nil
}

// CreateGroup binds a new empty consistency group to the configured metro
// domain and returns its id.
func (m *MetroGroupManager) CreateGroup(ctx context.Context, name string) (string, error) {
	ctx = log.EnsureRequestID(ctx)
	local, _ := m.backend.Snapshot()

	domain, err := m.getMetroDomain(ctx, local)
	if err != nil {
		return "", err
	}

	params := map[string]interface{}{
		"NAME":           name,
		"DOMAINID":       domain.ID,
		"RECOVERYPOLICY": constants.ReplicaRecoveryPolicyAuto,
		"SPEED":          m.backend.Config().SyncSpeed,
		"DESCRIPTION":    "Created from replication driver",
	}

	group, err := local.CreateMetroGroup(ctx, params)
	if err != nil {
		log.AddContext(ctx).Errorf("Create metro group %s error: %v", name, err)
		return "", err
	}

	log.AddContext(ctx).Infof("Metro group %s created in domain %s", group.ID, domain.ID)
	return group.ID, nil
}

// checkGroupNeedToStop stops the group only when it is actively mirroring.
func (m *MetroGroupManager) checkGroupNeedToStop(ctx context.Context,
	cli ArrayClient, groupID string) error {
	group, err := cli.GetMetroGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group == nil {
		return fmt.Errorf("metro group %s does not exist", groupID)
	}

	if statusIn(group.RunningStatus, metroActiveStatuses) {
		return cli.StopGroup(ctx, groupID)
	}

	return nil
}

// checkPairNeedToStop stops one metro pair only when it is actively mirroring.
// An absent pair is left to the membership call to report.
func (m *MetroGroupManager) checkPairNeedToStop(ctx context.Context,
	cli ArrayClient, pairID string) error {
	pair, err := cli.GetMetroPairByID(ctx, pairID)
	if err != nil {
		return err
	}
	if pair == nil {
		log.AddContext(ctx).Infof("Metro pair %s does not exist, skip stopping", pairID)
		return nil
	}

	if statusIn(pair.RunningStatus, metroActiveStatuses) {
		return cli.StopMetroPair(ctx, pairID)
	}

	return nil
}

// UpdateGroup applies membership changes to a group: the group and every
// moved pair are stopped first, then pairs are removed and added, then the
// group is resynchronized when it still has members.
func (m *MetroGroupManager) UpdateGroup(ctx context.Context,
	groupID string, addPairIDs, removePairIDs []string) error {
	ctx = log.EnsureRequestID(ctx)
	local, _ := m.backend.Snapshot()

	if err := m.checkGroupNeedToStop(ctx, local, groupID); err != nil {
		return err
	}

	for _, pairID := range append(append([]string{}, addPairIDs...), removePairIDs...) {
		if err := m.checkPairNeedToStop(ctx, local, pairID); err != nil {
			return err
		}
	}

	for _, pairID := range removePairIDs {
		if err := local.RemovePairFromGroup(ctx, groupID, pairID); err != nil {
			return err
		}
	}

	for _, pairID := range addPairIDs {
		if err := local.AddPairToGroup(ctx, groupID, pairID); err != nil {
			return err
		}
	}

	members, err := local.GetMetroPairsInGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		log.AddContext(ctx).Infof("Metro group %s is empty after update, skip sync", groupID)
		return nil
	}

	return local.SyncGroup(ctx, groupID)
}

// DeleteGroup stops and deletes the group container, then tears down each
// member volume's pair and remote LUN. Member failures are isolated per
// volume like the fleet wide operations.
func (m *MetroGroupManager) DeleteGroup(ctx context.Context,
	groupID string, memberVolumes []*Volume) []*VolumeUpdate {
	ctx = log.EnsureRequestID(ctx)
	local, _ := m.backend.Snapshot()

	group, err := local.GetMetroGroupByID(ctx, groupID)
	if err == nil && group != nil {
		if statusIn(group.RunningStatus, metroActiveStatuses) {
			if err := local.StopGroup(ctx, groupID); err != nil {
				log.AddContext(ctx).Warningf("Stop metro group %s error: %v", groupID, err)
			}
		}
		if err := local.DeleteGroup(ctx, groupID); err != nil {
			log.AddContext(ctx).Errorf("Delete metro group %s error: %v", groupID, err)
		}
	} else if err != nil {
		log.AddContext(ctx).Errorf("Get metro group %s error: %v", groupID, err)
	}

	var updates []*VolumeUpdate
	for _, vol := range memberVolumes {
		if err := m.DeleteMetroReplica(ctx, vol); err != nil {
			log.AddContext(ctx).Errorf("Delete metro replica of volume %s error: %v", vol.ID, err)
			updates = append(updates, &VolumeUpdate{
				VolumeID:          vol.ID,
				ReplicationStatus: constants.ReplicationStatusError,
				DriverData:        vol.DriverData,
			})
			continue
		}

		updates = append(updates, &VolumeUpdate{
			VolumeID:          vol.ID,
			ReplicationStatus: constants.ReplicationStatusDisabled,
		})
	}

	return updates
}

// CreateMetroReplica builds the active/active mirror of one volume: remote
// LUN, metro pair in the configured domain, optional group membership and the
// initial synchronization. Rolls back in reverse order on failure.
func (m *MetroGroupManager) CreateMetroReplica(ctx context.Context,
	vol *Volume, groupID string) (*VolumeUpdate, error) {
	ctx = log.EnsureRequestID(ctx)
	local, remote := m.backend.Snapshot()
	conf := m.backend.Config()

	localLun, err := local.GetLunByName(ctx, vol.Name)
	if err != nil {
		return nil, err
	}
	if localLun == nil {
		return nil, fmt.Errorf("local lun %s of volume %s does not exist", vol.Name, vol.ID)
	}

	var domain *model.MetroDomainInfo
	var remoteLun *model.LunInfo
	var remoteLunCreated bool
	var pair *model.MetroPairInfo

	tr := flow.NewTransaction("Create-Metro-Replica")

	tr.Then("Get-Metro-Domain", func(ctx context.Context) error {
		domain, err = m.getMetroDomain(ctx, local)
		return err
	}, nil)

	tr.Then("Wait-Local-Lun-Online", func(ctx context.Context) error {
		return waitLunOnline(ctx, local, localLun.ID, conf)
	}, nil)

	tr.Then("Create-Remote-Lun", func(ctx context.Context) error {
		pool, err := remote.GetPoolByName(ctx, conf.RemotePool)
		if err != nil {
			return err
		}
		if pool == nil {
			return fmt.Errorf("remote pool %s does not exist", conf.RemotePool)
		}

		remoteLun, err = remote.GetLunByName(ctx, localLun.Name)
		if err != nil {
			return err
		}
		if remoteLun == nil {
			params := map[string]interface{}{
				"NAME":        localLun.Name,
				"PARENTID":    pool.ID,
				"CAPACITY":    localLun.Capacity,
				"ALLOCTYPE":   localLun.AllocType,
				"DESCRIPTION": "Created from replication driver",
			}
			remoteLun, err = remote.CreateLun(ctx, params)
			remoteLunCreated = err == nil
		}
		return err
	}, func(ctx context.Context) {
		// A reused LUN is not ours to delete.
		if !remoteLunCreated {
			return
		}
		if err := remote.DeleteLun(ctx, remoteLun.ID); err != nil {
			log.AddContext(ctx).Warningf("Rollback remote lun %s error: %v", remoteLun.ID, err)
		}
	})

	tr.Then("Wait-Remote-Lun-Online", func(ctx context.Context) error {
		return waitLunOnline(ctx, remote, remoteLun.ID, conf)
	}, nil)

	tr.Then("Create-Metro-Pair", func(ctx context.Context) error {
		params := map[string]interface{}{
			"DOMAINID":       domain.ID,
			"HCRESOURCETYPE": constants.MetroResourceTypeLun,
			"ISFIRSTSYNC":    true,
			"LOCALOBJID":     localLun.ID,
			"REMOTEOBJID":    remoteLun.ID,
			"SPEED":          conf.SyncSpeed,
		}
		pair, err = local.CreateMetroPair(ctx, params)
		return err
	}, func(ctx context.Context) {
		if err := m.checkPairNeedToStop(ctx, local, pair.ID); err != nil {
			log.AddContext(ctx).Warningf("Rollback stop of metro pair %s error: %v", pair.ID, err)
		}
		if err := local.DeleteMetroPair(ctx, pair.ID); err != nil {
			log.AddContext(ctx).Warningf("Rollback delete of metro pair %s error: %v", pair.ID, err)
		}
	})

	if groupID != "" {
		tr.Then("Add-Pair-To-Group", func(ctx context.Context) error {
			if err := m.checkGroupNeedToStop(ctx, local, groupID); err != nil {
				return err
			}
			if err := m.checkPairNeedToStop(ctx, local, pair.ID); err != nil {
				return err
			}
			return local.AddPairToGroup(ctx, groupID, pair.ID)
		}, func(ctx context.Context) {
			if err := local.RemovePairFromGroup(ctx, groupID, pair.ID); err != nil {
				log.AddContext(ctx).Warningf("Rollback remove of metro pair %s from group %s error: %v",
					pair.ID, groupID, err)
			}
		})

		tr.Then("Sync-Group", func(ctx context.Context) error {
			return local.SyncGroup(ctx, groupID)
		}, nil)
	} else {
		tr.Then("Sync-Metro-Pair", func(ctx context.Context) error {
			if err := local.SyncMetroPair(ctx, pair.ID); err != nil {
				return err
			}
			return m.waitMetroSyncFinish(ctx, local, pair.ID)
		}, nil)
	}

	if err := tr.Commit(ctx); err != nil {
		tr.Rollback(ctx)
		return nil, err
	}

	data := &DriverData{
		PairID:       pair.ID,
		RemoteLunID:  remoteLun.ID,
		RemoteLunWWN: remoteLun.WWN,
	}
	raw, err := data.Encode()
	if err != nil {
		return nil, err
	}

	log.AddContext(ctx).Infof("Metro replica of volume %s created, pair %s, remote lun %s",
		vol.ID, pair.ID, remoteLun.ID)

	return &VolumeUpdate{
		VolumeID:          vol.ID,
		ReplicationStatus: constants.ReplicationStatusAvailable,
		DriverData:        raw,
	}, nil
}

// DeleteMetroReplica tears one member volume's metro pair and remote LUN
// down; every step checks existence first so re-invocation is harmless.
func (m *MetroGroupManager) DeleteMetroReplica(ctx context.Context, vol *Volume) error {
	ctx = log.EnsureRequestID(ctx)

	if vol.DriverData == "" {
		log.AddContext(ctx).Infof("Volume %s has no replication driver data, nothing to delete", vol.ID)
		return nil
	}

	data, err := ParseDriverData(vol.DriverData)
	if err != nil {
		return err
	}

	local, remote := m.backend.Snapshot()

	pair, err := local.GetMetroPairByID(ctx, data.PairID)
	if err != nil {
		return err
	}
	if pair != nil {
		if statusIn(pair.RunningStatus, metroActiveStatuses) {
			if err := local.StopMetroPair(ctx, data.PairID); err != nil {
				return err
			}
		}
		if err := local.DeleteMetroPair(ctx, data.PairID); err != nil {
			return err
		}
	} else {
		log.AddContext(ctx).Infof("Metro pair %s of volume %s is already absent",
			data.PairID, vol.ID)
	}

	if data.RemoteLunID != "" {
		lun, err := remote.GetLunByID(ctx, data.RemoteLunID)
		if err != nil {
			return err
		}
		if lun != nil {
			if err := remote.DeleteLun(ctx, data.RemoteLunID); err != nil {
				return err
			}
		}
	}

	log.AddContext(ctx).Infof("Metro replica of volume %s deleted", vol.ID)
	return nil
}

// waitMetroSyncFinish polls until the pair mirrors normally. Pause, error and
// invalid states are faults that never resolve by waiting.
func (m *MetroGroupManager) waitMetroSyncFinish(ctx context.Context,
	cli ArrayClient, pairID string) error {
	conf := m.backend.Config()

	return waiter.WaitForCondition(ctx, func() (bool, error) {
		pair, err := cli.GetMetroPairByID(ctx, pairID)
		if err != nil {
			return false, err
		}
		if pair == nil {
			return false, fmt.Errorf("metro pair %s disappeared while syncing", pairID)
		}

		if pair.HealthStatus == constants.MetroHealthStatusFault {
			return false, &PairFaultError{
				PairID:        pairID,
				RunningStatus: pair.RunningStatus,
				HealthStatus:  pair.HealthStatus,
			}
		}

		if pair.RunningStatus == constants.MetroRunningStatusToSync ||
			pair.RunningStatus == constants.MetroRunningStatusSyncing {
			return false, nil
		}
		if statusIn(pair.RunningStatus, metroAbnormalStatuses) {
			return false, &PairFaultError{
				PairID:        pairID,
				RunningStatus: pair.RunningStatus,
				HealthStatus:  pair.HealthStatus,
			}
		}

		return true, nil
	}, conf.SyncWaitInterval, conf.SyncWaitTimeout)
}
