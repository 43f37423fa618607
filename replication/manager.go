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

// PairManager orchestrates per volume replication lifecycle and fleet wide
// failover/failback on one backend pair. Safe for concurrent use across
// different volumes; the client assignment swap is guarded by the backend.
type PairManager struct {
	backend *BackendContext
}

// NewPairManager binds a manager to its backend pair.
func NewPairManager(backend *BackendContext) *PairManager {
	return &PairManager{backend: backend}
}

func waitLunOnline(ctx context.Context, cli ArrayClient, lunID string, conf Config) error {
	return waiter.WaitForCondition(ctx, func() (bool, error) {
		lun, err := cli.GetLunByID(ctx, lunID)
		if err != nil {
			return false, err
		}
		if lun == nil {
			return false, fmt.Errorf("lun %s does not exist on %s", lunID, cli.GetBackendID())
		}
		return lun.RunningStatus == constants.LunRunningStatusOnline, nil
	}, conf.WaitInterval, conf.LunWaitTimeout)
}

// resolveRemoteDevice matches the remote array among the local array's
// registered remote devices by wwn and checks the link is usable.
func resolveRemoteDevice(ctx context.Context, local, remote ArrayClient) (string, error) {
	wwn, err := remote.GetDeviceWWN(ctx)
	if err != nil {
		return "", err
	}

	devices, err := local.GetAllRemoteDevices(ctx)
	if err != nil {
		return "", err
	}

	for _, device := range devices {
		if device.WWN != wwn {
			continue
		}

		if device.RunningStatus != constants.RemoteDeviceRunningStatusLinkUp ||
			device.HealthStatus != constants.RemoteDeviceHealthStatusNormal {
			return "", fmt.Errorf("remote device %s of wwn %s is not linked up and healthy",
				device.ID, wwn)
		}
		return device.ID, nil
	}

	return "", fmt.Errorf("no remote device of wwn %s is registered on %s",
		wwn, local.GetBackendID())
}

// CreateReplica builds the replication relationship of one volume: remote
// LUN, pair, initial synchronization. Any failure rolls the created resources
// back in reverse order and returns the original error.
func (m *PairManager) CreateReplica(ctx context.Context,
	vol *Volume, replicaModel string) (*VolumeUpdate, error) {
	ctx = log.EnsureRequestID(ctx)
	local, remote := m.backend.Snapshot()
	conf := m.backend.Config()

	if replicaModel != constants.ReplicationModelSync &&
		replicaModel != constants.ReplicationModelAsync {
		return nil, fmt.Errorf("unknown replication model %s", replicaModel)
	}

	localLun, err := local.GetLunByName(ctx, vol.Name)
	if err != nil {
		return nil, err
	}
	if localLun == nil {
		return nil, fmt.Errorf("local lun %s of volume %s does not exist", vol.Name, vol.ID)
	}

	drv := NewPairDriver(local, conf)

	var remoteLun *model.LunInfo
	var remoteLunCreated bool
	var remoteDeviceID string
	var pair *model.PairInfo

	tr := flow.NewTransaction("Create-Replica")

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

	tr.Then("Resolve-Remote-Device", func(ctx context.Context) error {
		remoteDeviceID, err = resolveRemoteDevice(ctx, local, remote)
		return err
	}, nil)

	tr.Then("Create-Pair", func(ctx context.Context) error {
		pair, err = drv.Create(ctx, localLun.ID, remoteLun.ID, remoteDeviceID, replicaModel)
		return err
	}, func(ctx context.Context) {
		if err := drv.Split(ctx, pair.ID); err != nil {
			log.AddContext(ctx).Warningf("Rollback split of pair %s error: %v", pair.ID, err)
		}
		if err := local.DeletePair(ctx, pair.ID); err != nil {
			log.AddContext(ctx).Warningf("Rollback delete of pair %s error: %v", pair.ID, err)
		}
	})

	tr.Then("Sync-Pair", func(ctx context.Context) error {
		return drv.Sync(ctx, pair.ID, replicaModel == constants.ReplicationModelSync)
	}, nil)

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

	log.AddContext(ctx).Infof("Replica of volume %s created, pair %s, remote lun %s",
		vol.ID, pair.ID, remoteLun.ID)

	return &VolumeUpdate{
		VolumeID:          vol.ID,
		ReplicationStatus: constants.ReplicationStatusAvailable,
		DriverData:        raw,
	}, nil
}

// DeleteReplica tears the replication relationship of one volume down. Every
// step checks existence first, so repeated invocation after a crash mid
// delete finishes the remainder without error.
func (m *PairManager) DeleteReplica(ctx context.Context, vol *Volume) error {
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
	conf := m.backend.Config()
	drv := NewPairDriver(local, conf)

	pair, err := local.GetPairByID(ctx, data.PairID)
	if err != nil {
		return err
	}
	if pair != nil {
		if err := drv.Split(ctx, data.PairID); err != nil {
			return err
		}
		if err := local.DeletePair(ctx, data.PairID); err != nil {
			return err
		}
	} else {
		log.AddContext(ctx).Infof("Replication pair %s of volume %s is already absent",
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

	log.AddContext(ctx).Infof("Replica of volume %s deleted", vol.ID)
	return nil
}

// Failover makes the secondary array servable for every replicated volume.
// One volume's failure is recorded in its update and never aborts the batch.
// The local/remote client assignment is swapped once all pairs are done.
func (m *PairManager) Failover(ctx context.Context, volumes []*Volume) []*VolumeUpdate {
	ctx = log.EnsureRequestID(ctx)
	_, remote := m.backend.Snapshot()
	drv := NewPairDriver(remote, m.backend.Config())

	var updates []*VolumeUpdate
	for _, vol := range volumes {
		if !vol.IsReplicated() {
			continue
		}

		update, err := m.failoverVolume(ctx, drv, vol)
		if err != nil {
			log.AddContext(ctx).Errorf("Failover volume %s error: %v", vol.ID, err)
			updates = append(updates, &VolumeUpdate{
				VolumeID:          vol.ID,
				ReplicationStatus: constants.ReplicationStatusError,
				DriverData:        vol.DriverData,
			})
			continue
		}

		updates = append(updates, update)
	}

	m.backend.SwapClients()
	log.AddContext(ctx).Infof("Failover finished, local backend is now %s",
		m.backend.LocalClient().GetBackendID())
	return updates
}

func (m *PairManager) failoverVolume(ctx context.Context,
	drv *PairDriver, vol *Volume) (*VolumeUpdate, error) {
	data, err := ParseDriverData(vol.DriverData)
	if err != nil {
		return nil, err
	}

	if err := drv.Failover(ctx, data.PairID); err != nil {
		return nil, err
	}

	data.OldStatus = vol.ReplicationStatus
	raw, err := data.Encode()
	if err != nil {
		return nil, err
	}

	return &VolumeUpdate{
		VolumeID:          vol.ID,
		ReplicationStatus: constants.ReplicationStatusFailedOver,
		DriverData:        raw,
	}, nil
}

// Failback re-establishes the original primary as the active side after
// recovery and restores each volume's stashed status. Per volume isolation
// matches Failover; the client assignment is swapped back at the end.
func (m *PairManager) Failback(ctx context.Context, volumes []*Volume) []*VolumeUpdate {
	ctx = log.EnsureRequestID(ctx)

	// In the failed-over window "local" is the disaster site and "remote" is
	// the recovered original primary.
	local, remote := m.backend.Snapshot()
	conf := m.backend.Config()
	activeDrv := NewPairDriver(local, conf)
	primaryDrv := NewPairDriver(remote, conf)

	var updates []*VolumeUpdate
	for _, vol := range volumes {
		if !vol.IsReplicated() {
			continue
		}

		update, err := m.failbackVolume(ctx, primaryDrv, activeDrv, vol)
		if err != nil {
			log.AddContext(ctx).Errorf("Failback volume %s error: %v", vol.ID, err)
			updates = append(updates, &VolumeUpdate{
				VolumeID:          vol.ID,
				ReplicationStatus: constants.ReplicationStatusError,
				DriverData:        vol.DriverData,
			})
			continue
		}

		updates = append(updates, update)
	}

	m.backend.SwapClients()
	log.AddContext(ctx).Infof("Failback finished, local backend is now %s",
		m.backend.LocalClient().GetBackendID())
	return updates
}

func (m *PairManager) failbackVolume(ctx context.Context,
	primaryDrv, activeDrv *PairDriver, vol *Volume) (*VolumeUpdate, error) {
	data, err := ParseDriverData(vol.DriverData)
	if err != nil {
		return nil, err
	}

	// Drain the disaster site's writes back to the original primary before
	// splitting and switching the roles back.
	if err := primaryDrv.Enable(ctx, data.PairID, true); err != nil {
		return nil, err
	}

	if err := activeDrv.Failover(ctx, data.PairID); err != nil {
		return nil, err
	}

	if err := primaryDrv.Enable(ctx, data.PairID, false); err != nil {
		return nil, err
	}

	restored := data.OldStatus
	if restored == "" {
		restored = constants.ReplicationStatusAvailable
	}
	data.OldStatus = ""

	raw, err := data.Encode()
	if err != nil {
		return nil, err
	}

	return &VolumeUpdate{
		VolumeID:          vol.ID,
		ReplicationStatus: restored,
		DriverData:        raw,
	}, nil
}
