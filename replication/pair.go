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
	"huawei-replication-driver/utils/log"
	"huawei-replication-driver/utils/waiter"
)

// splitTargetStatuses are the running statuses a split lands in. A pair
// already in one of them needs no further split call.
var splitTargetStatuses = []string{
	constants.ReplicaRunningStatusSplit,
	constants.ReplicaRunningStatusInvalid,
	constants.ReplicaRunningStatusInterrupted,
}

// syncTargetStatuses are the running statuses a sync call drives the pair into.
var syncTargetStatuses = []string{
	constants.ReplicaRunningStatusNormal,
	constants.ReplicaRunningStatusSyncing,
	constants.ReplicaRunningStatusInitialSync,
}

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if status == s {
			return true
		}
	}
	return false
}

// PairDriver drives the primitive, idempotent operations of one replication
// pair against a single array. All composite operations re-read the current
// state before every mutating step, so an external scheduler may retry any of
// them after a crash without harm.
type PairDriver struct {
	cli  ArrayClient
	conf Config
}

// NewPairDriver instantiates a pair driver on one array.
func NewPairDriver(cli ArrayClient, conf Config) *PairDriver {
	return &PairDriver{
		cli:  cli,
		conf: conf.withDefaults(),
	}
}

// Create creates a pair between a local and a remote LUN. Async pairs get a
// periodic synchronize schedule attached, sync pairs run continuously.
func (d *PairDriver) Create(ctx context.Context,
	localLunID, remoteLunID, remoteDeviceID, replicaModel string) (*model.PairInfo, error) {
	params := map[string]interface{}{
		"LOCALRESID":     localLunID,
		"LOCALRESTYPE":   constants.ReplicaLocalResTypeLun,
		"REMOTEDEVICEID": remoteDeviceID,
		"REMOTERESID":    remoteLunID,
		"RECOVERYPOLICY": constants.ReplicaRecoveryPolicyAuto,
		"SPEED":          d.conf.SyncSpeed,
	}

	if replicaModel == constants.ReplicationModelAsync {
		params["REPLICATIONMODEL"] = constants.ReplicaModelValueAsync
		params["SYNCHRONIZETYPE"] = constants.ReplicaSyncTypeTimedWait
		params["TIMINGVAL"] = fmt.Sprintf("%d", d.conf.AsyncPeriod)
	} else {
		params["REPLICATIONMODEL"] = constants.ReplicaModelValueSync
	}

	pair, err := d.cli.CreatePair(ctx, params)
	if err != nil {
		log.AddContext(ctx).Errorf("Create replication pair between lun (%s-%s) error: %v",
			localLunID, remoteLunID, err)
		return nil, err
	}

	return pair, nil
}

func (d *PairDriver) getPairInfo(ctx context.Context, pairID string) (*model.PairInfo, error) {
	pair, err := d.cli.GetPairByID(ctx, pairID)
	if err != nil {
		return nil, err
	}
	if pair == nil {
		return nil, fmt.Errorf("replication pair %s does not exist on %s",
			pairID, d.cli.GetBackendID())
	}
	return pair, nil
}

// waitExpectState polls until the pair's running status enters expect.
func (d *PairDriver) waitExpectState(ctx context.Context, pairID string, expect []string) error {
	return waiter.WaitForCondition(ctx, func() (bool, error) {
		pair, err := d.getPairInfo(ctx, pairID)
		if err != nil {
			return false, err
		}
		return statusIn(pair.RunningStatus, expect), nil
	}, d.conf.WaitInterval, d.conf.WaitTimeout)
}

// WaitReplicaReady polls until the pair is fully synchronized. Observing a
// state outside the syncing set is a hard fault, not a transient condition.
func (d *PairDriver) WaitReplicaReady(ctx context.Context, pairID string) error {
	return waiter.WaitForCondition(ctx, func() (bool, error) {
		pair, err := d.getPairInfo(ctx, pairID)
		if err != nil {
			return false, err
		}

		if pair.RunningStatus == constants.ReplicaRunningStatusNormal &&
			pair.HealthStatus == constants.ReplicaHealthStatusNormal {
			return true, nil
		}

		if !statusIn(pair.RunningStatus, syncTargetStatuses) {
			return false, &PairFaultError{
				PairID:        pairID,
				RunningStatus: pair.RunningStatus,
				HealthStatus:  pair.HealthStatus,
			}
		}

		return false, nil
	}, d.conf.SyncWaitInterval, d.conf.SyncWaitTimeout)
}

// Split pauses mirroring. A pair already split, invalid or interrupted is
// left untouched.
func (d *PairDriver) Split(ctx context.Context, pairID string) error {
	pair, err := d.getPairInfo(ctx, pairID)
	if err != nil {
		return err
	}

	if statusIn(pair.RunningStatus, splitTargetStatuses) {
		log.AddContext(ctx).Infof("Replication pair %s is already at status %s, no need to split",
			pairID, pair.RunningStatus)
		return nil
	}

	if err := d.cli.SplitPair(ctx, pairID); err != nil {
		log.AddContext(ctx).Errorf("Split replication pair %s error: %v", pairID, err)
		return err
	}

	return d.waitExpectState(ctx, pairID, splitTargetStatuses)
}

// Sync starts synchronization. When the pair is already normal or syncing the
// mutating call is skipped. With waitComplete the call blocks until the pair
// reports fully synchronized and healthy.
func (d *PairDriver) Sync(ctx context.Context, pairID string, waitComplete bool) error {
	pair, err := d.getPairInfo(ctx, pairID)
	if err != nil {
		return err
	}

	if !statusIn(pair.RunningStatus, syncTargetStatuses) {
		if err := d.ProtectSecond(ctx, pairID); err != nil {
			return err
		}

		if err := d.cli.SyncPair(ctx, pairID); err != nil {
			log.AddContext(ctx).Errorf("Sync replication pair %s error: %v", pairID, err)
			return err
		}

		if err := d.waitExpectState(ctx, pairID, syncTargetStatuses); err != nil {
			return err
		}
	}

	if waitComplete {
		return d.WaitReplicaReady(ctx, pairID)
	}

	return nil
}

func (d *PairDriver) waitSecondAccess(ctx context.Context, pairID, access string) error {
	return waiter.WaitForCondition(ctx, func() (bool, error) {
		pair, err := d.getPairInfo(ctx, pairID)
		if err != nil {
			return false, err
		}
		return pair.SecResAccess == access, nil
	}, d.conf.WaitInterval, d.conf.WaitTimeout)
}

func (d *PairDriver) setSecondAccess(ctx context.Context, pairID, access string) error {
	pair, err := d.getPairInfo(ctx, pairID)
	if err != nil {
		return err
	}

	if pair.SecResAccess == access {
		return nil
	}

	if err := d.cli.SetPairSecondAccess(ctx, pairID, access); err != nil {
		log.AddContext(ctx).Errorf("Set replication pair %s secondary access to %s error: %v",
			pairID, access, err)
		return err
	}

	return d.waitSecondAccess(ctx, pairID, access)
}

// ProtectSecond makes the secondary LUN read only. A no-op when it already is.
func (d *PairDriver) ProtectSecond(ctx context.Context, pairID string) error {
	return d.setSecondAccess(ctx, pairID, constants.ReplicaSecondAccessReadOnly)
}

// UnprotectSecond makes the secondary LUN writable. A no-op when it already is.
func (d *PairDriver) UnprotectSecond(ctx context.Context, pairID string) error {
	return d.setSecondAccess(ctx, pairID, constants.ReplicaSecondAccessReadWrite)
}

// IsPrimary reports the administrative role of this side of the pair.
func (d *PairDriver) IsPrimary(ctx context.Context, pairID string) (bool, error) {
	pair, err := d.getPairInfo(ctx, pairID)
	if err != nil {
		return false, err
	}
	return pair.IsPrimary, nil
}

// Switch exchanges the primary and secondary roles. The pair is split and the
// secondary unprotected first; the ordering is enforced here, never left to
// the caller.
func (d *PairDriver) Switch(ctx context.Context, pairID string) error {
	if err := d.Split(ctx, pairID); err != nil {
		return err
	}

	if err := d.UnprotectSecond(ctx, pairID); err != nil {
		return err
	}

	if err := d.cli.SwitchPair(ctx, pairID); err != nil {
		log.AddContext(ctx).Errorf("Switch replication pair %s error: %v", pairID, err)
		return err
	}

	return waiter.WaitForCondition(ctx, func() (bool, error) {
		return d.IsPrimary(ctx, pairID)
	}, d.conf.WaitInterval, d.conf.WaitTimeout)
}

// Enable makes this side the active primary and (re)synchronizes the pair.
func (d *PairDriver) Enable(ctx context.Context, pairID string, waitSyncComplete bool) error {
	primary, err := d.IsPrimary(ctx, pairID)
	if err != nil {
		return err
	}

	if !primary {
		if err := d.Switch(ctx, pairID); err != nil {
			return err
		}
	}

	return d.Sync(ctx, pairID, waitSyncComplete)
}

// Failover makes the secondary side writable without changing its
// administrative role. It refuses to run on the primary side, and waits for a
// running synchronization to complete before splitting mid-copy.
func (d *PairDriver) Failover(ctx context.Context, pairID string) error {
	pair, err := d.getPairInfo(ctx, pairID)
	if err != nil {
		return err
	}

	if pair.IsPrimary {
		return fmt.Errorf("failover of pair %s refused: this side is already primary", pairID)
	}

	if pair.RunningStatus == constants.ReplicaRunningStatusSyncing ||
		pair.RunningStatus == constants.ReplicaRunningStatusInitialSync {
		if err := d.WaitReplicaReady(ctx, pairID); err != nil {
			return err
		}
	}

	if err := d.Split(ctx, pairID); err != nil {
		return err
	}

	return d.UnprotectSecond(ctx, pairID)
}
