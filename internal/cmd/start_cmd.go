/*
Copyright 2023 Red Hat Inc.

Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in
compliance with the License. You may obtain a copy of the License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software distributed under the License is
distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
implied. See the License for the specific language governing permissions and limitations under the
License.
*/

package cmd

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/soonish-io/notifycore/internal"
	"github.com/soonish-io/notifycore/internal/activities"
	"github.com/soonish-io/notifycore/internal/config"
	"github.com/soonish-io/notifycore/internal/crypto"
	"github.com/soonish-io/notifycore/internal/db"
	"github.com/soonish-io/notifycore/internal/db/migrations"
	"github.com/soonish-io/notifycore/internal/schedule"
	"github.com/soonish-io/notifycore/internal/storage"
	"github.com/soonish-io/notifycore/internal/workflow"
)

// Start creates and returns the `start` command.
func Start() *cobra.Command {
	result := &cobra.Command{
		Use:   "start",
		Short: "Starts components",
		Args:  cobra.NoArgs,
	}
	result.AddCommand(StartWorker())
	result.AddCommand(StartMigrate())
	return result
}

// StartWorker creates and returns the `start worker` command. It connects to Postgres and
// Temporal, wires the storage gateway, channel cipher, schedule registry and activities, and runs
// a Temporal worker polling the configured task queue until the process is asked to exit.
func StartWorker() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Starts the Temporal worker hosting the event orchestrator and reminder task",
		Args:  cobra.NoArgs,
		RunE:  runStartWorker,
	}
}

func runStartWorker(cmd *cobra.Command, argv []string) error {
	ctx := cmd.Context()
	logger := internal.LoggerFromContext(ctx)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pool, err := db.NewPgxPool(ctx, cfg.Database.ToPgConfig())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	key, err := base64.StdEncoding.DecodeString(cfg.Crypto.Key)
	if err != nil {
		return fmt.Errorf("failed to decode crypto key: %w", err)
	}
	cipher, err := crypto.NewCipher(key)
	if err != nil {
		return fmt.Errorf("failed to build channel cipher: %w", err)
	}

	gateway := storage.New(pool, cipher)
	defer gateway.Close()

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to temporal: %w", err)
	}
	defer temporalClient.Close()

	registry := schedule.New(temporalClient, cfg.Temporal.TaskQueue)

	acts := activities.New(gateway, cfg.Fallback)
	scheduleActs := activities.NewScheduleActivities(gateway, registry)

	w := workflow.RegisterWorker(temporalClient, cfg.Temporal.TaskQueue, acts, scheduleActs)

	logger.InfoContext(ctx, "starting temporal worker", "task_queue", cfg.Temporal.TaskQueue)
	return w.Run(worker.InterruptCh())
}

// StartMigrate creates and returns the `start migrate` command. It applies every pending database
// migration embedded in internal/db/migrations and exits.
func StartMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Applies pending database migrations",
		Args:  cobra.NoArgs,
		RunE:  runStartMigrate,
	}
}

func runStartMigrate(cmd *cobra.Command, argv []string) error {
	ctx := cmd.Context()
	logger := internal.LoggerFromContext(ctx)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	src, err := migrations.Source()
	if err != nil {
		return fmt.Errorf("failed to load embedded migrations: %w", err)
	}

	handler, err := db.NewMigrationHandler(cfg.Database.ToPgConfig(), src)
	if err != nil {
		return fmt.Errorf("failed to build migration handler: %w", err)
	}

	if err := handler.Up(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.InfoContext(ctx, "migrations applied")
	return nil
}
