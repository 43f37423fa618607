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

// Package helper holds the small shared pieces of the command line tool.
package helper

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"

	"huawei-replication-driver/replication"
)

// Examples normalizes the indentation of a cobra example block.
func Examples(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// ReadVolumesFile parses a JSON file holding the volume records an operation
// works on. The file is an array of volume objects.
func ReadVolumesFile(path string) ([]*replication.Volume, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read volumes file %s error: %v", path, err)
	}

	var volumes []*replication.Volume
	if err := json.Unmarshal(data, &volumes); err != nil {
		return nil, fmt.Errorf("unmarshal volumes file %s error: %v", path, err)
	}
	if len(volumes) == 0 {
		return nil, fmt.Errorf("volumes file %s holds no volumes", path)
	}

	return volumes, nil
}

// PrintUpdates renders the per volume results of an operation as a table.
func PrintUpdates(updates []*replication.VolumeUpdate) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"VOLUME", "REPLICATION STATUS", "DRIVER DATA"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, update := range updates {
		table.Append([]string{update.VolumeID, update.ReplicationStatus, update.DriverData})
	}

	table.Render()
}

// PrintTable renders a generic header/rows table.
func PrintTable(header []string, rows [][]string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)

	for _, row := range rows {
		table.Append(row)
	}

	table.Render()
}
