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
	"huawei-replication-driver/pkg/constants"
	"huawei-replication-driver/replication"
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a replication resource",
}

func registerDeleteCmd() {
	RootCmd.AddCommand(deleteCmd)
}

var deleteReplicaVolumesFile string

var deleteReplicaExample = helper.Examples(`
	# Tear the replication pairs of the listed volumes down
	replicactl delete replica -f volumes.json`)

var deleteReplicaCmd = &cobra.Command{
	Use:     "replica",
	Short:   "Delete replication pairs of volumes",
	Example: deleteReplicaExample,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteReplica(cmd.Context())
	},
}

func registerDeleteReplicaCmd() {
	deleteReplicaCmd.Flags().StringVarP(&deleteReplicaVolumesFile, "volumes-file", "f",
		"", "Path of the JSON file listing the volumes to tear down")
	_ = deleteReplicaCmd.MarkFlagRequired("volumes-file")
	deleteCmd.AddCommand(deleteReplicaCmd)
}

func runDeleteReplica(ctx context.Context) error {
	volumes, err := helper.ReadVolumesFile(deleteReplicaVolumesFile)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	manager := replication.NewPairManager(rt.backend)

	var updates []*replication.VolumeUpdate
	for _, vol := range volumes {
		if err := manager.DeleteReplica(ctx, vol); err != nil {
			return fmt.Errorf("delete replica of volume %s error: %v", vol.ID, err)
		}
		updates = append(updates, &replication.VolumeUpdate{
			VolumeID:          vol.ID,
			ReplicationStatus: constants.ReplicationStatusDisabled,
		})
	}

	helper.PrintUpdates(updates)
	return nil
}

var deleteGroupVolumesFile string

var deleteGroupExample = helper.Examples(`
	# Delete a consistency group and tear its member volumes down
	replicactl delete group <group-id> -f volumes.json`)

var deleteGroupCmd = &cobra.Command{
	Use:     "group <group-id>",
	Short:   "Delete a metro consistency group and its member pairs",
	Example: deleteGroupExample,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeleteGroup(cmd.Context(), args[0])
	},
}

func registerDeleteGroupCmd() {
	deleteGroupCmd.Flags().StringVarP(&deleteGroupVolumesFile, "volumes-file", "f",
		"", "Path of the JSON file listing the group's member volumes")
	deleteCmd.AddCommand(deleteGroupCmd)
}

func runDeleteGroup(ctx context.Context, groupID string) error {
	var volumes []*replication.Volume
	if deleteGroupVolumesFile != "" {
		var err error
		volumes, err = helper.ReadVolumesFile(deleteGroupVolumesFile)
		if err != nil {
			return err
		}
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	manager := replication.NewMetroGroupManager(rt.backend)
	updates := manager.DeleteGroup(ctx, groupID, volumes)
	helper.PrintUpdates(updates)
	return nil
}
