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

var failbackVolumesFile string

var failbackExample = helper.Examples(`
	# Fail all replicated volumes back to the recovered primary array
	replicactl failback -f volumes.json`)

var failbackCmd = &cobra.Command{
	Use:     "failback",
	Short:   "Fail replicated volumes back to the recovered primary array",
	Example: failbackExample,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFailback(cmd.Context())
	},
}

func registerFailbackCmd() {
	failbackCmd.Flags().StringVarP(&failbackVolumesFile, "volumes-file", "f",
		"", "Path of the JSON file listing the volumes to fail back")
	_ = failbackCmd.MarkFlagRequired("volumes-file")
	RootCmd.AddCommand(failbackCmd)
}

func runFailback(ctx context.Context) error {
	volumes, err := helper.ReadVolumesFile(failbackVolumesFile)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	manager := replication.NewPairManager(rt.backend)
	updates := manager.Failback(ctx, volumes)
	helper.PrintUpdates(updates)
	return nil
}
