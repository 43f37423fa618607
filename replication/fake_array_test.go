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
	"time"

	"huawei-replication-driver/pkg/constants"
	"huawei-replication-driver/storage/model"
)

// fabricPair is the array side state of one replication pair, shared between
// the two fake arrays so a mutation on one side is visible on the other.
type fabricPair struct {
	id            string
	localResID    string
	remoteResID   string
	model         string
	runningStatus string
	healthStatus  string
	secResAccess  string
	primarySide   string
}

type fabricMetroPair struct {
	id            string
	domainID      string
	localObjID    string
	remoteObjID   string
	runningStatus string
	healthStatus  string
	groupID       string
}

type fabricGroup struct {
	id            string
	name          string
	domainID      string
	runningStatus string
	healthStatus  string
}

// fakeFabric is the state shared by a pair of fake arrays.
type fakeFabric struct {
	pairs      map[string]*fabricPair
	metroPairs map[string]*fabricMetroPair
	groups     map[string]*fabricGroup
	domains    map[string]*model.MetroDomainInfo
	nextID     int
}

func (f *fakeFabric) newID(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// fakeArray is an in-memory ArrayClient. Mutating methods are counted so
// tests can assert idempotence; errs injects a failure by method name.
type fakeArray struct {
	id     string
	wwn    string
	fabric *fakeFabric

	luns          map[string]*model.LunInfo
	pools         map[string]*model.PoolInfo
	remoteDevices []*model.RemoteDevice

	calls map[string]int
	errs  map[string]error
	ops   []string
}

// newFakeFabric wires two fake arrays that see each other as linked up
// remote devices and share the pair and group state.
func newFakeFabric() (*fakeArray, *fakeArray) {
	fabric := &fakeFabric{
		pairs:      map[string]*fabricPair{},
		metroPairs: map[string]*fabricMetroPair{},
		groups:     map[string]*fabricGroup{},
		domains: map[string]*model.MetroDomainInfo{
			"md0": {ID: "domain-1", Name: "md0",
				RunningStatus: constants.MetroDomainRunningStatusNormal},
		},
	}

	newArray := func(id, wwn string) *fakeArray {
		return &fakeArray{
			id:     id,
			wwn:    wwn,
			fabric: fabric,
			luns:   map[string]*model.LunInfo{},
			pools: map[string]*model.PoolInfo{
				"rpool": {ID: "pool-1", Name: "rpool"},
			},
			calls: map[string]int{},
			errs:  map[string]error{},
		}
	}

	local := newArray("array-a", "wwn-a")
	remote := newArray("array-b", "wwn-b")

	local.remoteDevices = []*model.RemoteDevice{{
		ID:            "rd-b",
		WWN:           remote.wwn,
		RunningStatus: constants.RemoteDeviceRunningStatusLinkUp,
		HealthStatus:  constants.RemoteDeviceHealthStatusNormal,
	}}
	remote.remoteDevices = []*model.RemoteDevice{{
		ID:            "rd-a",
		WWN:           local.wwn,
		RunningStatus: constants.RemoteDeviceRunningStatusLinkUp,
		HealthStatus:  constants.RemoteDeviceHealthStatusNormal,
	}}

	return local, remote
}

func testConfig() Config {
	return Config{
		RemotePool:       "rpool",
		MetroDomain:      "md0",
		SyncSpeed:        constants.ReplicaSpeedHighest,
		WaitInterval:     time.Millisecond,
		WaitTimeout:      50 * time.Millisecond,
		SyncWaitInterval: time.Millisecond,
		SyncWaitTimeout:  50 * time.Millisecond,
		LunWaitTimeout:   50 * time.Millisecond,
	}
}

func (f *fakeArray) record(method string) error {
	f.calls[method]++
	f.ops = append(f.ops, method)
	return f.errs[method]
}

func (f *fakeArray) addLun(name string) *model.LunInfo {
	lun := &model.LunInfo{
		ID:            f.fabric.newID("lun"),
		Name:          name,
		Capacity:      2097152,
		WWN:           f.fabric.newID("lun-wwn"),
		RunningStatus: constants.LunRunningStatusOnline,
		HealthStatus:  "1",
		AllocType:     "1",
	}
	f.luns[lun.ID] = lun
	return lun
}

func (f *fakeArray) addPair(status, access, primarySide string) *fabricPair {
	pair := &fabricPair{
		id:            f.fabric.newID("pair"),
		runningStatus: status,
		healthStatus:  constants.ReplicaHealthStatusNormal,
		secResAccess:  access,
		primarySide:   primarySide,
	}
	f.fabric.pairs[pair.id] = pair
	return pair
}

// GetBackendID implements ArrayClient.
func (f *fakeArray) GetBackendID() string { return f.id }

func (f *fakeArray) CreateLun(ctx context.Context,
	params map[string]interface{}) (*model.LunInfo, error) {
	if err := f.record("CreateLun"); err != nil {
		return nil, err
	}
	name, _ := params["NAME"].(string)
	return f.addLun(name), nil
}

func (f *fakeArray) GetLunByID(ctx context.Context, id string) (*model.LunInfo, error) {
	if err := f.record("GetLunByID"); err != nil {
		return nil, err
	}
	return f.luns[id], nil
}

func (f *fakeArray) GetLunByName(ctx context.Context, name string) (*model.LunInfo, error) {
	if err := f.record("GetLunByName"); err != nil {
		return nil, err
	}
	for _, lun := range f.luns {
		if lun.Name == name {
			return lun, nil
		}
	}
	return nil, nil
}

func (f *fakeArray) DeleteLun(ctx context.Context, id string) error {
	if err := f.record("DeleteLun"); err != nil {
		return err
	}
	delete(f.luns, id)
	return nil
}

func (f *fakeArray) GetPoolByName(ctx context.Context, name string) (*model.PoolInfo, error) {
	if err := f.record("GetPoolByName"); err != nil {
		return nil, err
	}
	return f.pools[name], nil
}

func (f *fakeArray) GetAllPools(ctx context.Context) ([]*model.PoolInfo, error) {
	if err := f.record("GetAllPools"); err != nil {
		return nil, err
	}
	var pools []*model.PoolInfo
	for _, pool := range f.pools {
		pools = append(pools, pool)
	}
	return pools, nil
}

func (f *fakeArray) GetSystemInfo(ctx context.Context) (*model.SystemInfo, error) {
	if err := f.record("GetSystemInfo"); err != nil {
		return nil, err
	}
	return &model.SystemInfo{ID: f.id, WWN: f.wwn}, nil
}

func (f *fakeArray) GetDeviceWWN(ctx context.Context) (string, error) {
	if err := f.record("GetDeviceWWN"); err != nil {
		return "", err
	}
	return f.wwn, nil
}

func (f *fakeArray) GetAllRemoteDevices(ctx context.Context) ([]*model.RemoteDevice, error) {
	if err := f.record("GetAllRemoteDevices"); err != nil {
		return nil, err
	}
	return f.remoteDevices, nil
}

func (f *fakeArray) CreatePair(ctx context.Context,
	params map[string]interface{}) (*model.PairInfo, error) {
	if err := f.record("CreatePair"); err != nil {
		return nil, err
	}
	pair := &fabricPair{
		id:            f.fabric.newID("pair"),
		localResID:    getParam(params, "LOCALRESID"),
		remoteResID:   getParam(params, "REMOTERESID"),
		model:         getParam(params, "REPLICATIONMODEL"),
		runningStatus: constants.ReplicaRunningStatusSplit,
		healthStatus:  constants.ReplicaHealthStatusNormal,
		secResAccess:  constants.ReplicaSecondAccessReadWrite,
		primarySide:   f.id,
	}
	f.fabric.pairs[pair.id] = pair
	return f.pairView(pair), nil
}

func getParam(params map[string]interface{}, key string) string {
	v, _ := params[key].(string)
	return v
}

func (f *fakeArray) pairView(pair *fabricPair) *model.PairInfo {
	return &model.PairInfo{
		ID:               pair.id,
		LocalResID:       pair.localResID,
		RemoteResID:      pair.remoteResID,
		ReplicationModel: pair.model,
		RunningStatus:    pair.runningStatus,
		HealthStatus:     pair.healthStatus,
		IsPrimary:        pair.primarySide == f.id,
		SecResAccess:     pair.secResAccess,
	}
}

func (f *fakeArray) GetPairByID(ctx context.Context, pairID string) (*model.PairInfo, error) {
	if err := f.record("GetPairByID"); err != nil {
		return nil, err
	}
	pair, ok := f.fabric.pairs[pairID]
	if !ok {
		return nil, nil
	}
	return f.pairView(pair), nil
}

func (f *fakeArray) SplitPair(ctx context.Context, pairID string) error {
	if err := f.record("SplitPair"); err != nil {
		return err
	}
	f.fabric.pairs[pairID].runningStatus = constants.ReplicaRunningStatusSplit
	return nil
}

func (f *fakeArray) SyncPair(ctx context.Context, pairID string) error {
	if err := f.record("SyncPair"); err != nil {
		return err
	}
	pair := f.fabric.pairs[pairID]
	pair.runningStatus = constants.ReplicaRunningStatusNormal
	pair.healthStatus = constants.ReplicaHealthStatusNormal
	return nil
}

func (f *fakeArray) SwitchPair(ctx context.Context, pairID string) error {
	if err := f.record("SwitchPair"); err != nil {
		return err
	}
	f.fabric.pairs[pairID].primarySide = f.id
	return nil
}

func (f *fakeArray) DeletePair(ctx context.Context, pairID string) error {
	if err := f.record("DeletePair"); err != nil {
		return err
	}
	delete(f.fabric.pairs, pairID)
	return nil
}

func (f *fakeArray) SetPairSecondAccess(ctx context.Context, pairID, access string) error {
	if err := f.record("SetPairSecondAccess"); err != nil {
		return err
	}
	f.fabric.pairs[pairID].secResAccess = access
	return nil
}

func (f *fakeArray) GetMetroDomainByName(ctx context.Context,
	name string) (*model.MetroDomainInfo, error) {
	if err := f.record("GetMetroDomainByName"); err != nil {
		return nil, err
	}
	return f.fabric.domains[name], nil
}

func (f *fakeArray) CreateMetroPair(ctx context.Context,
	params map[string]interface{}) (*model.MetroPairInfo, error) {
	if err := f.record("CreateMetroPair"); err != nil {
		return nil, err
	}
	pair := &fabricMetroPair{
		id:            f.fabric.newID("hmpair"),
		domainID:      getParam(params, "DOMAINID"),
		localObjID:    getParam(params, "LOCALOBJID"),
		remoteObjID:   getParam(params, "REMOTEOBJID"),
		runningStatus: constants.MetroRunningStatusToSync,
		healthStatus:  "1",
	}
	f.fabric.metroPairs[pair.id] = pair
	return f.metroPairView(pair), nil
}

func (f *fakeArray) metroPairView(pair *fabricMetroPair) *model.MetroPairInfo {
	return &model.MetroPairInfo{
		ID:            pair.id,
		DomainID:      pair.domainID,
		LocalObjID:    pair.localObjID,
		RemoteObjID:   pair.remoteObjID,
		RunningStatus: pair.runningStatus,
		HealthStatus:  pair.healthStatus,
		IsInGroup:     pair.groupID != "",
		GroupID:       pair.groupID,
	}
}

func (f *fakeArray) GetMetroPairByID(ctx context.Context,
	pairID string) (*model.MetroPairInfo, error) {
	if err := f.record("GetMetroPairByID"); err != nil {
		return nil, err
	}
	pair, ok := f.fabric.metroPairs[pairID]
	if !ok {
		return nil, nil
	}
	return f.metroPairView(pair), nil
}

func (f *fakeArray) GetMetroPairsInGroup(ctx context.Context,
	groupID string) ([]*model.MetroPairInfo, error) {
	if err := f.record("GetMetroPairsInGroup"); err != nil {
		return nil, err
	}
	var pairs []*model.MetroPairInfo
	for _, pair := range f.fabric.metroPairs {
		if pair.groupID == groupID {
			pairs = append(pairs, f.metroPairView(pair))
		}
	}
	return pairs, nil
}

func (f *fakeArray) StopMetroPair(ctx context.Context, pairID string) error {
	if err := f.record("StopMetroPair"); err != nil {
		return err
	}
	f.fabric.metroPairs[pairID].runningStatus = constants.MetroRunningStatusPause
	return nil
}

func (f *fakeArray) SyncMetroPair(ctx context.Context, pairID string) error {
	if err := f.record("SyncMetroPair"); err != nil {
		return err
	}
	pair := f.fabric.metroPairs[pairID]
	pair.runningStatus = constants.MetroRunningStatusNormal
	pair.healthStatus = "1"
	return nil
}

func (f *fakeArray) DeleteMetroPair(ctx context.Context, pairID string) error {
	if err := f.record("DeleteMetroPair"); err != nil {
		return err
	}
	delete(f.fabric.metroPairs, pairID)
	return nil
}

func (f *fakeArray) CreateMetroGroup(ctx context.Context,
	params map[string]interface{}) (*model.MetroGroupInfo, error) {
	if err := f.record("CreateMetroGroup"); err != nil {
		return nil, err
	}
	group := &fabricGroup{
		id:            f.fabric.newID("cg"),
		name:          getParam(params, "NAME"),
		domainID:      getParam(params, "DOMAINID"),
		runningStatus: constants.MetroRunningStatusNormal,
		healthStatus:  "1",
	}
	f.fabric.groups[group.id] = group
	return f.groupView(group), nil
}

func (f *fakeArray) groupView(group *fabricGroup) *model.MetroGroupInfo {
	return &model.MetroGroupInfo{
		ID:            group.id,
		Name:          group.name,
		DomainID:      group.domainID,
		RunningStatus: group.runningStatus,
		HealthStatus:  group.healthStatus,
	}
}

func (f *fakeArray) GetMetroGroupByID(ctx context.Context,
	groupID string) (*model.MetroGroupInfo, error) {
	if err := f.record("GetMetroGroupByID"); err != nil {
		return nil, err
	}
	group, ok := f.fabric.groups[groupID]
	if !ok {
		return nil, nil
	}
	return f.groupView(group), nil
}

func (f *fakeArray) AddPairToGroup(ctx context.Context, groupID, pairID string) error {
	if err := f.record("AddPairToGroup"); err != nil {
		return err
	}
	pair, ok := f.fabric.metroPairs[pairID]
	if !ok {
		return fmt.Errorf("metro pair %s does not exist", pairID)
	}
	pair.groupID = groupID
	return nil
}

func (f *fakeArray) RemovePairFromGroup(ctx context.Context, groupID, pairID string) error {
	if err := f.record("RemovePairFromGroup"); err != nil {
		return err
	}
	pair, ok := f.fabric.metroPairs[pairID]
	if !ok {
		return fmt.Errorf("metro pair %s does not exist", pairID)
	}
	pair.groupID = ""
	return nil
}

func (f *fakeArray) StopGroup(ctx context.Context, groupID string) error {
	if err := f.record("StopGroup"); err != nil {
		return err
	}
	f.fabric.groups[groupID].runningStatus = constants.MetroRunningStatusPause
	return nil
}

func (f *fakeArray) SyncGroup(ctx context.Context, groupID string) error {
	if err := f.record("SyncGroup"); err != nil {
		return err
	}
	f.fabric.groups[groupID].runningStatus = constants.MetroRunningStatusNormal
	for _, pair := range f.fabric.metroPairs {
		if pair.groupID == groupID {
			pair.runningStatus = constants.MetroRunningStatusNormal
		}
	}
	return nil
}

func (f *fakeArray) DeleteGroup(ctx context.Context, groupID string) error {
	if err := f.record("DeleteGroup"); err != nil {
		return err
	}
	delete(f.fabric.groups, groupID)
	return nil
}
