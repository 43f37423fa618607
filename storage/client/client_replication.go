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

package client

import (
	"context"
	"fmt"

	"huawei-replication-driver/storage/model"
	"huawei-replication-driver/utils/log"
)

const (
	replicationNotExist int64 = 1077937923
)

// Replication defines the replication pair primitives of one array.
type Replication interface {
	// CreatePair used for create replication pair
	CreatePair(ctx context.Context, data map[string]interface{}) (*model.PairInfo, error)
	// GetPairByID used for get replication pair by pair id
	GetPairByID(ctx context.Context, pairID string) (*model.PairInfo, error)
	// SplitPair used for split replication pair by pair id
	SplitPair(ctx context.Context, pairID string) error
	// SyncPair used for synchronize replication pair
	SyncPair(ctx context.Context, pairID string) error
	// SwitchPair used for switch the roles of a replication pair
	SwitchPair(ctx context.Context, pairID string) error
	// DeletePair used for delete replication pair by pair id
	DeletePair(ctx context.Context, pairID string) error
	// SetPairSecondAccess used for set the secondary resource access mode
	SetPairSecondAccess(ctx context.Context, pairID, access string) error
}

func parsePair(data map[string]interface{}) *model.PairInfo {
	return &model.PairInfo{
		ID:               getString(data, "ID"),
		LocalResID:       getString(data, "LOCALRESID"),
		RemoteResID:      getString(data, "REMOTERESID"),
		RemoteDeviceID:   getString(data, "REMOTEDEVICEID"),
		ReplicationModel: getString(data, "REPLICATIONMODEL"),
		RunningStatus:    getString(data, "RUNNINGSTATUS"),
		HealthStatus:     getString(data, "HEALTHSTATUS"),
		IsPrimary:        getString(data, "ISPRIMARY") == "true",
		SecResAccess:     getString(data, "SECRESACCESS"),
	}
}

// CreatePair used for create replication pair
func (cli *RestClient) CreatePair(ctx context.Context,
	data map[string]interface{}) (*model.PairInfo, error) {
	resp, err := cli.Post(ctx, "/REPLICATIONPAIR", data)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("create replication pair %v error: %d", data, code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}
	return parsePair(respData), nil
}

// GetPairByID used for get replication pair by pair id, returns nil when absent
func (cli *RestClient) GetPairByID(ctx context.Context, pairID string) (*model.PairInfo, error) {
	url := fmt.Sprintf("/REPLICATIONPAIR/%s", pairID)
	resp, err := cli.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	code := resp.errorCode()
	if code == replicationNotExist {
		log.AddContext(ctx).Infof("Replication pair %s does not exist", pairID)
		return nil, nil
	}
	if code != 0 {
		return nil, fmt.Errorf("get replication pair %s error: %d", pairID, code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}
	return parsePair(respData), nil
}

// SplitPair used for split replication pair by pair id
func (cli *RestClient) SplitPair(ctx context.Context, pairID string) error {
	data := map[string]interface{}{
		"ID": pairID,
	}

	resp, err := cli.Put(ctx, "/REPLICATIONPAIR/split", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("split replication pair %s error: %d", pairID, code)
	}

	return nil
}

// SyncPair used for synchronize replication pair
func (cli *RestClient) SyncPair(ctx context.Context, pairID string) error {
	data := map[string]interface{}{
		"ID": pairID,
	}

	resp, err := cli.Put(ctx, "/REPLICATIONPAIR/sync", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("sync replication pair %s error: %d", pairID, code)
	}

	return nil
}

// SwitchPair used for switch the roles of a replication pair
func (cli *RestClient) SwitchPair(ctx context.Context, pairID string) error {
	data := map[string]interface{}{
		"ID": pairID,
	}

	resp, err := cli.Put(ctx, "/REPLICATIONPAIR/switch", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("switch replication pair %s error: %d", pairID, code)
	}

	return nil
}

// DeletePair used for delete replication pair by pair id; an absent pair is
// not an error
func (cli *RestClient) DeletePair(ctx context.Context, pairID string) error {
	url := fmt.Sprintf("/REPLICATIONPAIR/%s", pairID)
	resp, err := cli.Delete(ctx, url, nil)
	if err != nil {
		return err
	}

	code := resp.errorCode()
	if code == replicationNotExist {
		log.AddContext(ctx).Infof("Replication pair %s does not exist while deleting", pairID)
		return nil
	}
	if code != 0 {
		return fmt.Errorf("delete replication pair %s error: %d", pairID, code)
	}

	return nil
}

// SetPairSecondAccess used for set the secondary resource access mode
func (cli *RestClient) SetPairSecondAccess(ctx context.Context, pairID, access string) error {
	url := fmt.Sprintf("/REPLICATIONPAIR/%s", pairID)
	data := map[string]interface{}{
		"ID":           pairID,
		"SECRESACCESS": access,
	}

	resp, err := cli.Put(ctx, url, data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("set replication pair %s secondary access to %s error: %d",
			pairID, access, code)
	}

	return nil
}
