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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huawei-replication-driver/pkg/constants"
)

func TestParseDriverData(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"Valid", `{"pair_id":"p1","rmt_lun_id":"22"}`, false},
		{"Empty", "", true},
		{"Not JSON", "whatever", true},
		{"No pair id", `{"rmt_lun_id":"22"}`, true},
	}

	for _, c := range cases {
		data, err := ParseDriverData(c.raw)
		if c.wantErr {
			assert.Error(t, err, c.name)
			continue
		}
		require.NoError(t, err, c.name)
		assert.Equal(t, "p1", data.PairID, c.name)
	}
}

func TestDriverDataEncodeOmitsEmptyOldStatus(t *testing.T) {
	data := &DriverData{PairID: "p1", RemoteLunID: "22", RemoteLunWWN: "wwn"}

	raw, err := data.Encode()

	require.NoError(t, err)
	assert.NotContains(t, raw, "old_status")

	parsed, err := ParseDriverData(raw)
	require.NoError(t, err)
	assert.Equal(t, *data, *parsed)
}

func TestVolumeIsReplicated(t *testing.T) {
	assert.False(t, (&Volume{}).IsReplicated())
	assert.False(t, (&Volume{ReplicationStatus: constants.ReplicationStatusDisabled}).IsReplicated())
	assert.True(t, (&Volume{ReplicationStatus: constants.ReplicationStatusAvailable}).IsReplicated())
	assert.True(t, (&Volume{ReplicationStatus: constants.ReplicationStatusFailedOver}).IsReplicated())
}
