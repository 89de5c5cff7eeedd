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
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/driver/zabbix"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

const sendTimeout = 30 * time.Second

var (
	reportDomain string
	reportServer string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build and submit a batched sample report",
	Long: `report samples one domain (with --domain) or every domain on the host and
submits the batch to the trapper port given by --server. With no --server
the samples are printed to stdout as JSON instead of being submitted.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if reportServer == "" {
			reportServer = config.Zabbix.Server
		}

		if reportDomain == "" {
			return nil
		}

		return validDomainArg(reportDomain)
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withInspector(func(inspector controller.Inspector) error {
			reporter := zabbix.NewReporter(inspector)

			var (
				samples []types.Sample
				err     error
			)

			if reportDomain != "" {
				samples, err = reporter.InstanceReport(reportDomain)
			} else {
				samples, err = reporter.HostReport(cmd.Context())
			}
			if err != nil {
				return err
			}

			if reportServer == "" {
				return printSamples(samples)
			}

			return sendSamples(cmd, samples)
		})
	},
}

func printSamples(samples []types.Sample) error {
	data, err := json.MarshalIndent(samples, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func sendSamples(cmd *cobra.Command, samples []types.Sample) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
	defer cancel()

	result, err := zabbix.NewSender(reportServer).Send(ctx, samples)
	if err != nil {
		return err
	}

	slog.Info("report submitted",
		"server", reportServer, "samples", len(samples), "info", result.Info)

	return nil
}

func init() {
	reportCmd.Flags().StringVarP(&reportDomain, "domain", "d", "",
		"UUID of a single domain to report on (default: all domains)")
	reportCmd.Flags().StringVarP(&reportServer, "server", "s", "",
		"trapper address (host:port); omit to print samples to stdout")

	rootCmd.AddCommand(reportCmd)
}
