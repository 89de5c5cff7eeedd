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
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/virtzab/internal/adapter"
	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/util/logging"
)

const Name = "virtzab"

var (
	flagURI     string
	flagVerbose bool

	config *Config
)

var rootCmd = &cobra.Command{
	Use:   Name,
	Short: "Query a libvirt host for guest metrics in Zabbix-consumable form",
	Long: `virtzab opens one read-only libvirt session per invocation and performs a
single query: domain/device discovery for Zabbix low-level discovery, one
scalar metric for item polling, a batched trapper submission, or a resident
Prometheus exporter.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if flagVerbose {
			logging.SetupDevelopment()
		} else {
			logging.SetupDefault()
		}

		var err error
		config, err = loadConfig()
		if err != nil {
			return err
		}

		if flagURI != "" {
			config.URI = flagURI
		}

		return nil
	},
}

// Execute runs the CLI. Errors are logged and turn into a non-zero exit.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagURI, "uri", "U", "",
		fmt.Sprintf("hypervisor connection URI (default %q)", DefaultURI))
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "o", false,
		"enable verbose logging")
}

// withInspector opens the read-only session, runs fn, and closes the session.
//
// A connection failure is the one non-fatal error at the top level: it is
// logged and the process exits cleanly without output, so a host that is
// down never trips the backend's item error handling.
func withInspector(fn func(inspector controller.Inspector) error) error {
	hv, err := adapter.Connect(config.URI)
	if errors.Is(err, adapter.ErrConnect) {
		slog.Error("cannot connect to hypervisor", "uri", config.URI, "error", err)
		return nil
	} else if err != nil {
		return err
	}
	defer func() { _ = hv.Close() }()

	return fn(controller.NewInspector(hv))
}

// validDomainArg validates the --domain flag value.
func validDomainArg(domain string) error {
	if domain == "" {
		return errors.New("--domain is required")
	}

	if _, err := uuid.Parse(domain); err != nil {
		return fmt.Errorf("invalid domain uuid %q: %w", domain, err)
	}

	return nil
}
