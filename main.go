/*
Copyright (c) 2023 Red Hat, Inc.

Licensed under the Apache License, Version 2.0 (the "License"); you may not use
this file except in compliance with the License. You may obtain a copy of the
License at

  http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software distributed
under the License is distributed on an "AS IS" BASIS, WITHOUT WARRANTIES OR
CONDITIONS OF ANY KIND, either express or implied. See the License for the
specific language governing permissions and limitations under the License.
*/

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soonish-io/notifycore/internal"
	"github.com/soonish-io/notifycore/internal/cmd"
	"github.com/soonish-io/notifycore/internal/logging"
)

func main() {
	root := &cobra.Command{
		Use:           "notifycore",
		Short:         "Event notification scheduling service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, argv []string) error {
			logger, err := logging.NewLogger().
				SetFlags(c.Flags()).
				SetOut(os.Stdout).
				SetErr(os.Stderr).
				Build()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			c.SetContext(internal.LoggerIntoContext(c.Context(), logger))
			return nil
		},
	}
	logging.AddFlags(root.PersistentFlags())

	root.AddCommand(cmd.Version())
	root.AddCommand(cmd.Start())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err.Error())
		os.Exit(1)
	}
}
