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

package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"huawei-replication-driver/cli/helper"
	"huawei-replication-driver/replication"
	"huawei-replication-driver/utils/log"
)

var statusVolumesFile string

var statusExample = helper.Examples(`
	# Show the pair state of every volume in the file
	replicactl status -f volumes.json`)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the replication pair state of volumes",
	Example: statusExample,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd.Context())
	},
}

func registerStatusCmd() {
	statusCmd.Flags().StringVarP(&statusVolumesFile, "volumes-file", "f",
		"", "Path of the JSON file listing the volumes to inspect")
	_ = statusCmd.MarkFlagRequired("volumes-file")
	RootCmd.AddCommand(statusCmd)
}

func runStatus(ctx context.Context) error {
	volumes, err := helper.ReadVolumesFile(statusVolumesFile)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	local := rt.backend.LocalClient()

	var rows [][]string
	for _, vol := range volumes {
		if !vol.IsReplicated() || vol.DriverData == "" {
			rows = append(rows, []string{vol.ID, "-", "-", "-", "-"})
			continue
		}

		data, err := replication.ParseDriverData(vol.DriverData)
		if err != nil {
			log.AddContext(ctx).Errorf("Parse driver data of volume %s error: %v", vol.ID, err)
			rows = append(rows, []string{vol.ID, "-", "invalid", "-", "-"})
			continue
		}

		pair, err := local.GetPairByID(ctx, data.PairID)
		if err != nil {
			return err
		}
		if pair == nil {
			rows = append(rows, []string{vol.ID, data.PairID, "absent", "-", "-"})
			continue
		}

		role := "secondary"
		if pair.IsPrimary {
			role = "primary"
		}
		rows = append(rows, []string{vol.ID, pair.ID, pair.RunningStatus, pair.HealthStatus, role})
	}

	helper.PrintTable([]string{"VOLUME", "PAIR", "RUNNING", "HEALTH", "ROLE"}, rows)
	return nil
}
