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
	hyperMetroNotExist      int64 = 1077674242
	hyperMetroGroupNotExist int64 = 1077675010
)

// HyperMetro defines the metro pair and consistency group primitives.
type HyperMetro interface {
	// GetMetroDomainByName used for get metro domain by name
	GetMetroDomainByName(ctx context.Context, name string) (*model.MetroDomainInfo, error)
	// CreateMetroPair used for create metro pair
	CreateMetroPair(ctx context.Context, data map[string]interface{}) (*model.MetroPairInfo, error)
	// GetMetroPairByID used for get metro pair by pair id
	GetMetroPairByID(ctx context.Context, pairID string) (*model.MetroPairInfo, error)
	// GetMetroPairsInGroup used for get all metro pairs of a consistency group
	GetMetroPairsInGroup(ctx context.Context, groupID string) ([]*model.MetroPairInfo, error)
	// StopMetroPair used for stop metro pair
	StopMetroPair(ctx context.Context, pairID string) error
	// SyncMetroPair used for synchronize metro pair
	SyncMetroPair(ctx context.Context, pairID string) error
	// DeleteMetroPair used for delete metro pair by pair id
	DeleteMetroPair(ctx context.Context, pairID string) error
	// CreateMetroGroup used for create metro consistency group
	CreateMetroGroup(ctx context.Context, data map[string]interface{}) (*model.MetroGroupInfo, error)
	// GetMetroGroupByID used for get metro consistency group by group id
	GetMetroGroupByID(ctx context.Context, groupID string) (*model.MetroGroupInfo, error)
	// AddPairToGroup used for add a metro pair to a consistency group
	AddPairToGroup(ctx context.Context, groupID, pairID string) error
	// RemovePairFromGroup used for remove a metro pair from a consistency group
	RemovePairFromGroup(ctx context.Context, groupID, pairID string) error
	// StopGroup used for stop a consistency group
	StopGroup(ctx context.Context, groupID string) error
	// SyncGroup used for synchronize a consistency group
	SyncGroup(ctx context.Context, groupID string) error
	// DeleteGroup used for delete a consistency group container
	DeleteGroup(ctx context.Context, groupID string) error
}

func parseMetroPair(data map[string]interface{}) *model.MetroPairInfo {
	return &model.MetroPairInfo{
		ID:            getString(data, "ID"),
		DomainID:      getString(data, "DOMAINID"),
		LocalObjID:    getString(data, "LOCALOBJID"),
		RemoteObjID:   getString(data, "REMOTEOBJID"),
		RunningStatus: getString(data, "RUNNINGSTATUS"),
		HealthStatus:  getString(data, "HEALTHSTATUS"),
		IsPrimary:     getString(data, "ISPRIMARY") == "true",
		IsInGroup:     getString(data, "ISINCG") == "true",
		GroupID:       getString(data, "CGID"),
	}
}

func parseMetroGroup(data map[string]interface{}) *model.MetroGroupInfo {
	return &model.MetroGroupInfo{
		ID:            getString(data, "ID"),
		Name:          getString(data, "NAME"),
		DomainID:      getString(data, "DOMAINID"),
		RunningStatus: getString(data, "RUNNINGSTATUS"),
		HealthStatus:  getString(data, "HEALTHSTATUS"),
		IsPrimary:     getString(data, "ISPRIMARY") == "true",
	}
}

// GetMetroDomainByName used for get metro domain by name, returns nil when absent
func (cli *RestClient) GetMetroDomainByName(ctx context.Context,
	name string) (*model.MetroDomainInfo, error) {
	resp, err := cli.Get(ctx, "/HyperMetroDomain?range=[0-100]", nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get metro domain of name %s error: %d", name, code)
	}
	if resp.Data == nil {
		log.AddContext(ctx).Infof("No metro domain %s exists", name)
		return nil, nil
	}

	respData, err := cli.getResponseDataList(resp.Data)
	if err != nil {
		return nil, err
	}
	for _, i := range respData {
		domain, ok := i.(map[string]interface{})
		if !ok {
			log.AddContext(ctx).Warningf("convert domain to map failed, data: %v", i)
			continue
		}
		if getString(domain, "NAME") == name {
			return &model.MetroDomainInfo{
				ID:            getString(domain, "ID"),
				Name:          getString(domain, "NAME"),
				RunningStatus: getString(domain, "RUNNINGSTATUS"),
			}, nil
		}
	}

	log.AddContext(ctx).Infof("Metro domain %s does not exist", name)
	return nil, nil
}

// CreateMetroPair used for create metro pair
func (cli *RestClient) CreateMetroPair(ctx context.Context,
	data map[string]interface{}) (*model.MetroPairInfo, error) {
	resp, err := cli.Post(ctx, "/HyperMetroPair", data)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("create metro pair %v error: %d", data, code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}
	return parseMetroPair(respData), nil
}

// GetMetroPairByID used for get metro pair by pair id, returns nil when absent
func (cli *RestClient) GetMetroPairByID(ctx context.Context,
	pairID string) (*model.MetroPairInfo, error) {
	url := fmt.Sprintf("/HyperMetroPair?filter=ID::%s", pairID)
	resp, err := cli.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get metro pair %s error: %d", pairID, code)
	}
	if resp.Data == nil {
		log.AddContext(ctx).Infof("Metro pair %s does not exist", pairID)
		return nil, nil
	}

	respData, err := cli.getResponseDataList(resp.Data)
	if err != nil {
		return nil, err
	}
	if len(respData) == 0 {
		log.AddContext(ctx).Infof("Metro pair %s does not exist", pairID)
		return nil, nil
	}

	pair, ok := respData[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("convert metro pair to map failed, data: %v", respData[0])
	}
	return parseMetroPair(pair), nil
}

// GetMetroPairsInGroup used for get all metro pairs of a consistency group
func (cli *RestClient) GetMetroPairsInGroup(ctx context.Context,
	groupID string) ([]*model.MetroPairInfo, error) {
	url := fmt.Sprintf("/HyperMetroPair?filter=CGID::%s", groupID)
	resp, err := cli.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get metro pairs of group %s error: %d", groupID, code)
	}
	if resp.Data == nil {
		return nil, nil
	}

	respData, err := cli.getResponseDataList(resp.Data)
	if err != nil {
		return nil, err
	}

	var pairs []*model.MetroPairInfo
	for _, i := range respData {
		pair, ok := i.(map[string]interface{})
		if !ok {
			log.AddContext(ctx).Warningf("convert metro pair to map failed, data: %v", i)
			continue
		}
		pairs = append(pairs, parseMetroPair(pair))
	}

	return pairs, nil
}

// StopMetroPair used for stop metro pair
func (cli *RestClient) StopMetroPair(ctx context.Context, pairID string) error {
	data := map[string]interface{}{
		"ID": pairID,
	}

	resp, err := cli.Put(ctx, "/HyperMetroPair/disable_hcpair", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("stop metro pair %s error: %d", pairID, code)
	}

	return nil
}

// SyncMetroPair used for synchronize metro pair
func (cli *RestClient) SyncMetroPair(ctx context.Context, pairID string) error {
	data := map[string]interface{}{
		"ID": pairID,
	}

	resp, err := cli.Put(ctx, "/HyperMetroPair/synchronize_hcpair", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("sync metro pair %s error: %d", pairID, code)
	}

	return nil
}

// DeleteMetroPair used for delete metro pair; an absent pair is not an error
func (cli *RestClient) DeleteMetroPair(ctx context.Context, pairID string) error {
	url := fmt.Sprintf("/HyperMetroPair/%s", pairID)
	resp, err := cli.Delete(ctx, url, nil)
	if err != nil {
		return err
	}

	code := resp.errorCode()
	if code == hyperMetroNotExist {
		log.AddContext(ctx).Infof("Metro pair %s does not exist while deleting", pairID)
		return nil
	}
	if code != 0 {
		return fmt.Errorf("delete metro pair %s error: %d", pairID, code)
	}

	return nil
}

// CreateMetroGroup used for create metro consistency group
func (cli *RestClient) CreateMetroGroup(ctx context.Context,
	data map[string]interface{}) (*model.MetroGroupInfo, error) {
	resp, err := cli.Post(ctx, "/HyperMetro_ConsistentGroup", data)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("create metro group %v error: %d", data, code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}
	return parseMetroGroup(respData), nil
}

// GetMetroGroupByID used for get metro consistency group, returns nil when absent
func (cli *RestClient) GetMetroGroupByID(ctx context.Context,
	groupID string) (*model.MetroGroupInfo, error) {
	url := fmt.Sprintf("/HyperMetro_ConsistentGroup/%s", groupID)
	resp, err := cli.Get(ctx, url, nil)
	if err != nil {
		return nil, err
	}

	code := resp.errorCode()
	if code == hyperMetroGroupNotExist || code == objectNotExist {
		log.AddContext(ctx).Infof("Metro group %s does not exist", groupID)
		return nil, nil
	}
	if code != 0 {
		return nil, fmt.Errorf("get metro group %s error: %d", groupID, code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}
	return parseMetroGroup(respData), nil
}

// AddPairToGroup used for add a metro pair to a consistency group
func (cli *RestClient) AddPairToGroup(ctx context.Context, groupID, pairID string) error {
	data := map[string]interface{}{
		"ID":             groupID,
		"ASSOCIATEOBJID": pairID,
	}

	resp, err := cli.Post(ctx, "/hyperMetro/associate/pair", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("add metro pair %s to group %s error: %d", pairID, groupID, code)
	}

	return nil
}

// RemovePairFromGroup used for remove a metro pair from a consistency group
func (cli *RestClient) RemovePairFromGroup(ctx context.Context, groupID, pairID string) error {
	data := map[string]interface{}{
		"ID":             groupID,
		"ASSOCIATEOBJID": pairID,
	}

	resp, err := cli.Delete(ctx, "/hyperMetro/associate/pair", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("remove metro pair %s from group %s error: %d", pairID, groupID, code)
	}

	return nil
}

// StopGroup used for stop a consistency group
func (cli *RestClient) StopGroup(ctx context.Context, groupID string) error {
	data := map[string]interface{}{
		"ID": groupID,
	}

	resp, err := cli.Put(ctx, "/HyperMetro_ConsistentGroup/stop", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("stop metro group %s error: %d", groupID, code)
	}

	return nil
}

// SyncGroup used for synchronize a consistency group
func (cli *RestClient) SyncGroup(ctx context.Context, groupID string) error {
	data := map[string]interface{}{
		"ID": groupID,
	}

	resp, err := cli.Put(ctx, "/HyperMetro_ConsistentGroup/sync", data)
	if err != nil {
		return err
	}

	if code := resp.errorCode(); code != 0 {
		return fmt.Errorf("sync metro group %s error: %d", groupID, code)
	}

	return nil
}

// DeleteGroup used for delete a consistency group container; an absent group
// is not an error
func (cli *RestClient) DeleteGroup(ctx context.Context, groupID string) error {
	url := fmt.Sprintf("/HyperMetro_ConsistentGroup/%s", groupID)
	resp, err := cli.Delete(ctx, url, nil)
	if err != nil {
		return err
	}

	code := resp.errorCode()
	if code == hyperMetroGroupNotExist || code == objectNotExist {
		log.AddContext(ctx).Infof("Metro group %s does not exist while deleting", groupID)
		return nil
	}
	if code != 0 {
		return fmt.Errorf("delete metro group %s error: %d", groupID, code)
	}

	return nil
}
