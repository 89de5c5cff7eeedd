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
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/driver/promexporter"
	"github.com/alexandremahdhaoui/virtzab/internal/util/gracefulshutdown"
	"github.com/alexandremahdhaoui/virtzab/internal/util/httputil"
)

var (
	exporterListen string
	exporterPath   string
)

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Run a resident Prometheus exporter",
	Long: `exporter keeps one read-only hypervisor session open and serves guest
metrics over HTTP. Every scrape performs a fresh discovery sweep and samples
every domain on the host.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if exporterListen == "" {
			exporterListen = config.Exporter.Listen
		}

		if exporterPath == "" {
			exporterPath = config.Exporter.Path
		}

		return withInspector(func(inspector controller.Inspector) error {
			gs := gracefulshutdown.New(Name)

			registry := prometheus.NewRegistry()
			registry.MustRegister(promexporter.NewCollector(inspector, slog.Default()))

			mux := http.NewServeMux()
			mux.Handle(exporterPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

			slog.Info("🚀 starting exporter", "listen", exporterListen, "path", exporterPath)

			httputil.Serve(map[string]*http.Server{
				"exporter": {Addr: exporterListen, Handler: mux},
			}, gs)

			return nil
		})
	},
}

func init() {
	exporterCmd.Flags().StringVarP(&exporterListen, "listen", "l", "",
		fmt.Sprintf("listen address of the metrics server (default %q)", DefaultExporterListen))
	exporterCmd.Flags().StringVar(&exporterPath, "path", "",
		fmt.Sprintf("metrics path (default %q)", DefaultExporterPath))

	rootCmd.AddCommand(exporterCmd)
}
