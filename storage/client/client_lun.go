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
	"strconv"

	"huawei-replication-driver/storage/model"
	"huawei-replication-driver/utils/log"
)

const (
	objectNotExist int64 = 1077948996
	lunNotExist    int64 = 1077936859
)

// Lun defines the LUN and pool primitives of one array.
type Lun interface {
	// CreateLun used for create lun by params
	CreateLun(ctx context.Context, params map[string]interface{}) (*model.LunInfo, error)
	// GetLunByID used for get lun by lun id
	GetLunByID(ctx context.Context, id string) (*model.LunInfo, error)
	// GetLunByName used for get lun by name
	GetLunByName(ctx context.Context, name string) (*model.LunInfo, error)
	// DeleteLun used for delete lun by lun id
	DeleteLun(ctx context.Context, id string) error
	// GetPoolByName used for get pool by name
	GetPoolByName(ctx context.Context, name string) (*model.PoolInfo, error)
	// GetAllPools used for get all pools
	GetAllPools(ctx context.Context) ([]*model.PoolInfo, error)
}

func parseLun(data map[string]interface{}) *model.LunInfo {
	capacity, _ := strconv.ParseInt(getString(data, "CAPACITY"), 10, 64)
	return &model.LunInfo{
		ID:            getString(data, "ID"),
		Name:          getString(data, "NAME"),
		ParentID:      getString(data, "PARENTID"),
		Capacity:      capacity,
		WWN:           getString(data, "WWN"),
		RunningStatus: getString(data, "RUNNINGSTATUS"),
		HealthStatus:  getString(data, "HEALTHSTATUS"),
		AllocType:     getString(data, "ALLOCTYPE"),
	}
}

// CreateLun used for create lun by params
func (cli *RestClient) CreateLun(ctx context.Context,
	params map[string]interface{}) (*model.LunInfo, error) {
	resp, err := cli.Post(ctx, "/lun", params)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("create lun %v error: %d", params, code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}
	return parseLun(respData), nil
}

// GetLunByID used for get lun by lun id, returns nil when the lun is absent
func (cli *RestClient) GetLunByID(ctx context.Context, id string) (*model.LunInfo, error) {
	url := fmt.Sprintf("/lun/%s", id)
	resp, err := cli.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	code := resp.errorCode()
	if code == lunNotExist || code == objectNotExist {
		log.AddContext(ctx).Infof("Lun %s does not exist", id)
		return nil, nil
	}
	if code != 0 {
		return nil, fmt.Errorf("get lun %s error: %d", id, code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}
	return parseLun(respData), nil
}

// GetLunByName used for get lun by name, returns nil when the lun is absent
func (cli *RestClient) GetLunByName(ctx context.Context, name string) (*model.LunInfo, error) {
	url := fmt.Sprintf("/lun?filter=NAME::%s", name)
	resp, err := cli.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get lun of name %s error: %d", name, code)
	}
	if resp.Data == nil {
		log.AddContext(ctx).Infof("Lun %s does not exist", name)
		return nil, nil
	}

	respData, err := cli.getResponseDataList(resp.Data)
	if err != nil {
		return nil, err
	}
	if len(respData) == 0 {
		log.AddContext(ctx).Infof("Lun %s does not exist", name)
		return nil, nil
	}

	lun, ok := respData[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("convert lun to map failed, data: %v", respData[0])
	}
	return parseLun(lun), nil
}

// DeleteLun used for delete lun by lun id; an absent lun is not an error
func (cli *RestClient) DeleteLun(ctx context.Context, id string) error {
	url := fmt.Sprintf("/lun/%s", id)
	resp, err := cli.Delete(ctx, url, nil)
	if err != nil {
		return err
	}

	code := resp.errorCode()
	if code == lunNotExist || code == objectNotExist {
		log.AddContext(ctx).Infof("Lun %s does not exist while deleting", id)
		return nil
	}
	if code != 0 {
		return fmt.Errorf("delete lun %s error: %d", id, code)
	}

	return nil
}

// GetPoolByName used for get pool by name, returns nil when the pool is absent
func (cli *RestClient) GetPoolByName(ctx context.Context, name string) (*model.PoolInfo, error) {
	url := fmt.Sprintf("/storagepool?filter=NAME::%s&range=[0-100]", name)
	resp, err := cli.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get pool %s error: %d", name, code)
	}
	if resp.Data == nil {
		log.AddContext(ctx).Infof("Pool %s does not exist", name)
		return nil, nil
	}

	respData, err := cli.getResponseDataList(resp.Data)
	if err != nil {
		return nil, err
	}
	if len(respData) == 0 {
		log.AddContext(ctx).Infof("Pool %s does not exist", name)
		return nil, nil
	}

	pool, ok := respData[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("convert pool to map failed, data: %v", respData[0])
	}
	return &model.PoolInfo{
		ID:   getString(pool, "ID"),
		Name: getString(pool, "NAME"),
	}, nil
}

// GetAllPools used for get all pools
func (cli *RestClient) GetAllPools(ctx context.Context) ([]*model.PoolInfo, error) {
	resp, err := cli.Get(ctx, "/storagepool", nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get all pools error: %d", code)
	}
	if resp.Data == nil {
		return nil, nil
	}

	respData, err := cli.getResponseDataList(resp.Data)
	if err != nil {
		return nil, err
	}

	var pools []*model.PoolInfo
	for _, i := range respData {
		pool, ok := i.(map[string]interface{})
		if !ok {
			log.AddContext(ctx).Warningf("convert pool to map failed, data: %v", i)
			continue
		}
		pools = append(pools, &model.PoolInfo{
			ID:   getString(pool, "ID"),
			Name: getString(pool, "NAME"),
		})
	}

	return pools, nil
}
