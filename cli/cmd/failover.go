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
)

var failoverVolumesFile string

var failoverExample = helper.Examples(`
	# Fail all replicated volumes over to the secondary array
	replicactl failover -f volumes.json`)

var failoverCmd = &cobra.Command{
	Use:     "failover",
	Short:   "Fail replicated volumes over to the secondary array",
	Example: failoverExample,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFailover(cmd.Context())
	},
}

func registerFailoverCmd() {
	failoverCmd.Flags().StringVarP(&failoverVolumesFile, "volumes-file", "f",
		"", "Path of the JSON file listing the volumes to fail over")
	_ = failoverCmd.MarkFlagRequired("volumes-file")
	RootCmd.AddCommand(failoverCmd)
}

func runFailover(ctx context.Context) error {
	volumes, err := helper.ReadVolumesFile(failoverVolumesFile)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	manager := replication.NewPairManager(rt.backend)
	updates := manager.Failover(ctx, volumes)
	helper.PrintUpdates(updates)
	return nil
}
