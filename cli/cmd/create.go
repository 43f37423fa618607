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

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a replication resource",
}

func registerCreateCmd() {
	RootCmd.AddCommand(createCmd)
}

var (
	createReplicaVolumesFile string
	createReplicaModel       string
)

var createReplicaExample = helper.Examples(`
	# Create an async replica for every volume in the file
	replicactl create replica -f volumes.json --model async

	# Create a sync replica and wait for the initial copy
	replicactl create replica -f volumes.json --model sync`)

var createReplicaCmd = &cobra.Command{
	Use:     "replica",
	Short:   "Create replication pairs for volumes",
	Example: createReplicaExample,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateReplica(cmd.Context())
	},
}

func registerCreateReplicaCmd() {
	createReplicaCmd.Flags().StringVarP(&createReplicaVolumesFile, "volumes-file", "f",
		"", "Path of the JSON file listing the volumes to replicate")
	createReplicaCmd.Flags().StringVar(&createReplicaModel, "model", "async",
		"Replication model, sync or async")
	_ = createReplicaCmd.MarkFlagRequired("volumes-file")
	createCmd.AddCommand(createReplicaCmd)
}

func runCreateReplica(ctx context.Context) error {
	volumes, err := helper.ReadVolumesFile(createReplicaVolumesFile)
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
		update, err := manager.CreateReplica(ctx, vol, createReplicaModel)
		if err != nil {
			return fmt.Errorf("create replica of volume %s error: %v", vol.ID, err)
		}
		updates = append(updates, update)
	}

	helper.PrintUpdates(updates)
	return nil
}

var createGroupExample = helper.Examples(`
	# Create an empty metro consistency group
	replicactl create group mygroup`)

var createGroupCmd = &cobra.Command{
	Use:     "group <name>",
	Short:   "Create a metro consistency group",
	Example: createGroupExample,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateGroup(cmd.Context(), args[0])
	},
}

func registerCreateGroupCmd() {
	createCmd.AddCommand(createGroupCmd)
}

func runCreateGroup(ctx context.Context, name string) error {
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	manager := replication.NewMetroGroupManager(rt.backend)
	groupID, err := manager.CreateGroup(ctx, name)
	if err != nil {
		return err
	}

	helper.PrintTable([]string{"GROUP", "NAME"}, [][]string{{groupID, name}})
	return nil
}

var (
	createMetroVolumesFile string
	createMetroGroupID     string
)

var createMetroExample = helper.Examples(`
	# Create a metro mirror for every volume in the file
	replicactl create metro -f volumes.json

	# Create metro mirrors inside an existing consistency group
	replicactl create metro -f volumes.json --group <group-id>`)

var createMetroCmd = &cobra.Command{
	Use:     "metro",
	Short:   "Create active/active metro mirrors for volumes",
	Example: createMetroExample,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreateMetro(cmd.Context())
	},
}

func registerCreateMetroCmd() {
	createMetroCmd.Flags().StringVarP(&createMetroVolumesFile, "volumes-file", "f",
		"", "Path of the JSON file listing the volumes to mirror")
	createMetroCmd.Flags().StringVar(&createMetroGroupID, "group", "",
		"Consistency group id to add the new pairs to")
	_ = createMetroCmd.MarkFlagRequired("volumes-file")
	createCmd.AddCommand(createMetroCmd)
}

func runCreateMetro(ctx context.Context) error {
	volumes, err := helper.ReadVolumesFile(createMetroVolumesFile)
	if err != nil {
		return err
	}

	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close(ctx)

	manager := replication.NewMetroGroupManager(rt.backend)

	var updates []*replication.VolumeUpdate
	for _, vol := range volumes {
		update, err := manager.CreateMetroReplica(ctx, vol, createMetroGroupID)
		if err != nil {
			return fmt.Errorf("create metro replica of volume %s error: %v", vol.ID, err)
		}
		updates = append(updates, update)
	}

	helper.PrintUpdates(updates)
	return nil
}
