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

// Package cmd defines the commands of replicactl.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"huawei-replication-driver/config"
	"huawei-replication-driver/replication"
	"huawei-replication-driver/storage/client"
	"huawei-replication-driver/utils/log"
)

var (
	configFile string
	logLevel   string

	driverConfig *config.DriverConfig
)

// RootCmd is the root command of replicactl.
var RootCmd = &cobra.Command{
	SilenceUsage:      true,
	Use:               "replicactl",
	Short:             "A CLI tool for volume replication between Huawei storage arrays",
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(configFile)
		if err != nil {
			return err
		}
		driverConfig = conf

		level := logLevel
		if level == "" {
			level = conf.LogLevel
		}
		if level == "" {
			level = "info"
		}
		return log.Init(level)
	},
}

// Execute runs the root command.
func Execute() error {
	registerRootCmd()
	registerFailoverCmd()
	registerFailbackCmd()
	registerStatusCmd()
	registerCreateCmd()
	registerCreateReplicaCmd()
	registerCreateGroupCmd()
	registerCreateMetroCmd()
	registerDeleteCmd()
	registerDeleteReplicaCmd()
	registerDeleteGroupCmd()
	registerUpdateCmd()
	registerUpdateGroupCmd()

	return RootCmd.Execute()
}

func registerRootCmd() {
	RootCmd.PersistentFlags().StringVarP(&configFile, "config", "c",
		"/etc/huawei/replication.yaml", "Path of the driver configuration file")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level, overrides the configuration file")
}

// runtime holds the logged in clients of one invocation.
type runtime struct {
	backend *replication.BackendContext
	local   *client.RestClient
	remote  *client.RestClient
}

// buildRuntime logs in to both arrays and assembles the backend context.
// Callers must close it to release the array sessions.
func buildRuntime(ctx context.Context) (*runtime, error) {
	localName := driverConfig.Local.Name
	if localName == "" {
		localName = "local"
	}
	remoteName := driverConfig.Remote.Name
	if remoteName == "" {
		remoteName = "remote"
	}

	local := client.NewRestClient(driverConfig.Local.Urls,
		driverConfig.Local.User, driverConfig.Local.Password, localName)
	remote := client.NewRestClient(driverConfig.Remote.Urls,
		driverConfig.Remote.User, driverConfig.Remote.Password, remoteName)

	if err := local.Login(ctx); err != nil {
		return nil, fmt.Errorf("login to %s array error: %v", localName, err)
	}
	if err := remote.Login(ctx); err != nil {
		local.Logout(ctx)
		return nil, fmt.Errorf("login to %s array error: %v", remoteName, err)
	}

	rep := driverConfig.Replication
	conf := replication.Config{
		RemotePool:       rep.RemotePool,
		MetroDomain:      rep.MetroDomain,
		SyncSpeed:        rep.SyncSpeed,
		AsyncPeriod:      rep.AsyncPeriod,
		WaitInterval:     rep.WaitInterval(),
		WaitTimeout:      rep.WaitTimeout(),
		SyncWaitInterval: rep.SyncWaitInterval(),
		SyncWaitTimeout:  rep.SyncWaitTimeout(),
		LunWaitTimeout:   rep.LunWaitTimeout(),
	}

	return &runtime{
		backend: replication.NewBackendContext(local, remote, conf),
		local:   local,
		remote:  remote,
	}, nil
}

func (r *runtime) close(ctx context.Context) {
	r.local.Logout(ctx)
	r.remote.Logout(ctx)
}
