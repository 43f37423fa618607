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
	"fmt"

	"github.com/spf13/cobra"

	"huawei-replication-driver/cli/helper"
	"huawei-replication-driver/replication"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update a replication resource",
}

func registerUpdateCmd() {
	RootCmd.AddCommand(updateCmd)
}

var (
	updateGroupAddPairs    []string
	updateGroupRemovePairs []string
)

var updateGroupExample = helper.Examples(`
	# Move pairs in and out of a consistency group
	replicactl update group <group-id> --add <pair-id> --remove <pair-id>`)

var updateGroupCmd = &cobra.Command{
	Use:     "group <group-id>",
	Short:   "Change the membership of a metro consistency group",
	Example: updateGroupExample,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateGroup(cmd.Context(), args[0])
	},
}

func registerUpdateGroupCmd() {
	updateGroupCmd.Flags().StringSliceVar(&updateGroupAddPairs, "add", nil,
		"Metro pair ids to add to the group")
	updateGroupCmd.Flags().StringSliceVar(&updateGroupRemovePairs, "remove", nil,
		"Metro pair ids to remove from the group")
	updateCmd.AddCommand(updateGroupCmd)
}

func runUpdateGroup(ctx context.Context, groupID string) error {
	if len(updateGroupAddPairs) == 0 && len(updateGroupRemovePairs) == 0 {
		return fmt.Errorf("nothing to update, use --add and/or --remove")
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	manager := replication.NewMetroGroupManager(rt.backend)
	if err := manager.UpdateGroup(ctx, groupID, updateGroupAddPairs, updateGroupRemovePairs); err != nil {
		return err
	}

	fmt.Printf("Group %s updated\n", groupID)
	return nil
}
