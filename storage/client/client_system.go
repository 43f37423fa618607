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

// System defines the array identity and remote device primitives.
type System interface {
	// GetSystemInfo used for get the identity of this array
	GetSystemInfo(ctx context.Context) (*model.SystemInfo, error)
	// GetDeviceWWN used for get the cached wwn of this array
	GetDeviceWWN(ctx context.Context) (string, error)
	// GetAllRemoteDevices used for get all remote devices registered on this array
	GetAllRemoteDevices(ctx context.Context) ([]*model.RemoteDevice, error)
}

func parseRemoteDevice(data map[string]interface{}) *model.RemoteDevice {
	return &model.RemoteDevice{
		ID:            getString(data, "ID"),
		Name:          getString(data, "NAME"),
		SN:            getString(data, "SN"),
		WWN:           getString(data, "WWN"),
		RunningStatus: getString(data, "RUNNINGSTATUS"),
		HealthStatus:  getString(data, "HEALTHSTATUS"),
	}
}

// GetSystemInfo used for get the identity of this array
func (cli *RestClient) GetSystemInfo(ctx context.Context) (*model.SystemInfo, error) {
	resp, err := cli.Get(ctx, "/system/", nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get system info error: %d", code)
	}

	respData, err := cli.getResponseDataMap(resp.Data)
	if err != nil {
		return nil, err
	}

	info := &model.SystemInfo{
		ID:        getString(respData, "ID"),
		Name:      getString(respData, "NAME"),
		SN:        getString(respData, "ID"),
		WWN:       getString(respData, "wwn"),
		ProductID: getString(respData, "PRODUCTMODE"),
	}

	cli.SN = info.SN
	return info, nil
}

// GetDeviceWWN returns the wwn of this array, fetching system info on first use.
func (cli *RestClient) GetDeviceWWN(ctx context.Context) (string, error) {
	info, err := cli.GetSystemInfo(ctx)
	if err != nil {
		log.AddContext(ctx).Errorf("Get device wwn of %s error: %v", cli.URL, err)
		return "", err
	}
	return info.WWN, nil
}

// GetAllRemoteDevices used for get all remote devices registered on this array
func (cli *RestClient) GetAllRemoteDevices(ctx context.Context) ([]*model.RemoteDevice, error) {
	resp, err := cli.Get(ctx, "/remote_device", nil)
	if err != nil {
		return nil, err
	}

	if code := resp.errorCode(); code != 0 {
		return nil, fmt.Errorf("get all remote devices error: %d", code)
	}
	if resp.Data == nil {
		log.AddContext(ctx).Infof("No remote device exists on %s", cli.URL)
		return nil, nil
	}

	respData, err := cli.getResponseDataList(resp.Data)
	if err != nil {
		return nil, err
	}

	var devices []*model.RemoteDevice
	for _, i := range respData {
		device, ok := i.(map[string]interface{})
		if !ok {
			log.AddContext(ctx).Warningf("convert remote device to map failed, data: %v", i)
			continue
		}
		devices = append(devices, parseRemoteDevice(device))
	}

	return devices, nil
}
