// Copyright 2024 Alexandre Mahdhaoui
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/virtzab/internal/controller"
)

var (
	getDomain string
	getDevice string
	getField  string
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print one metric field as plain text",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// cobra does not chain PersistentPreRunE; run the root's first.
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}

		if err := validDomainArg(getDomain); err != nil {
			return err
		}

		if getField == "" {
			return errors.New("--field is required")
		}

		return nil
	},
}

var getCPUCmd = &cobra.Command{
	Use:   "cpu",
	Short: "CPU accounting (fields: cpu_time, core_count)",
	RunE: func(_ *cobra.Command, _ []string) error {
		return printField(func(inspector controller.Inspector) ([]controller.Field, error) {
			stats, err := inspector.CPUStats(getDomain)
			if err != nil {
				return nil, err
			}

			return controller.CPUFields(stats), nil
		})
	},
}

var getMemoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Memory accounting in bytes (fields: free, available, current_allocation)",
	RunE: func(_ *cobra.Command, _ []string) error {
		return printField(func(inspector controller.Inspector) ([]controller.Field, error) {
			stats, err := inspector.MemoryStats(getDomain)
			if err != nil {
				return nil, err
			}

			return controller.MemoryFields(stats), nil
		})
	},
}

var getNICCmd = &cobra.Command{
	Use:   "nic",
	Short: "NIC I/O counters (fields: read, write)",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return requireDevice()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return printField(func(inspector controller.Inspector) ([]controller.Field, error) {
			io, err := inspector.InterfaceIO(getDomain, getDevice)
			if err != nil {
				return nil, err
			}

			return controller.InterfaceFields(io), nil
		})
	},
}

var getDiskCmd = &cobra.Command{
	Use:   "disk",
	Short: "Disk I/O counters (fields: rd_bytes, wr_bytes, rd_operations, ...)",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return requireDevice()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return printField(func(inspector controller.Inspector) ([]controller.Field, error) {
			io, err := inspector.DiskIO(getDomain, getDevice)
			if err != nil {
				return nil, err
			}

			return controller.DiskFields(io), nil
		})
	},
}

var getInstanceCmd = &cobra.Command{
	Use:   "instance",
	Short: "Instance attributes (fields: user_uuid, project_uuid, user_name, project_name, virt_host, name, active)",
	RunE: func(_ *cobra.Command, _ []string) error {
		return printField(func(inspector controller.Inspector) ([]controller.Field, error) {
			attrs, err := inspector.MiscAttributes(getDomain)
			if err != nil {
				return nil, err
			}

			return controller.InstanceFields(attrs), nil
		})
	},
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "Print 1 when the domain is running, 0 otherwise",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return validDomainArg(getDomain)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return withInspector(func(inspector controller.Inspector) error {
			active, err := inspector.IsActive(getDomain)
			if err != nil {
				return err
			}

			value := "0"
			if active {
				value = "1"
			}

			_, err = fmt.Fprintln(os.Stdout, value)
			return err
		})
	},
}

func printField(sample func(controller.Inspector) ([]controller.Field, error)) error {
	return withInspector(func(inspector controller.Inspector) error {
		fields, err := sample(inspector)
		if err != nil {
			return err
		}

		value, err := controller.LookupField(fields, getField)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(os.Stdout, value)
		return err
	})
}

func requireDevice() error {
	if getDevice == "" {
		return errors.New("--device is required")
	}

	return nil
}

func init() {
	getCmd.PersistentFlags().StringVarP(&getDomain, "domain", "d", "",
		"UUID of the domain to be queried")
	getCmd.PersistentFlags().StringVarP(&getDevice, "device", "p", "",
		"target device name of the disk or NIC")
	getCmd.PersistentFlags().StringVarP(&getField, "field", "m", "",
		"name of the metric field to print")

	getCmd.AddCommand(getCPUCmd)
	getCmd.AddCommand(getMemoryCmd)
	getCmd.AddCommand(getNICCmd)
	getCmd.AddCommand(getDiskCmd)
	getCmd.AddCommand(getInstanceCmd)

	activeCmd.Flags().StringVarP(&getDomain, "domain", "d", "",
		"UUID of the domain to be queried")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(activeCmd)
}
