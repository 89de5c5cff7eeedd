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
	"os"

	"github.com/spf13/cobra"

	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/driver/zabbix"
)

var discoverDomain string

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Print low-level-discovery documents",
}

var discoverDomainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Enumerate all domains on the host",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withInspector(func(inspector controller.Inspector) error {
			refs, err := inspector.DiscoverDomains()
			if err != nil {
				return err
			}

			return printDiscovery(zabbix.DomainDiscovery(refs))
		})
	},
}

var discoverNICsCmd = &cobra.Command{
	Use:   "nics",
	Short: "Enumerate a domain's network interfaces",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return validDomainArg(discoverDomain)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return withInspector(func(inspector controller.Inspector) error {
			devs, err := inspector.DiscoverInterfaces(discoverDomain)
			if err != nil {
				return err
			}

			return printDiscovery(zabbix.NICDiscovery(devs))
		})
	},
}

var discoverDisksCmd = &cobra.Command{
	Use:   "disks",
	Short: "Enumerate a domain's disks",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return validDomainArg(discoverDomain)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return withInspector(func(inspector controller.Inspector) error {
			devs, err := inspector.DiscoverDisks(discoverDomain)
			if err != nil {
				return err
			}

			return printDiscovery(zabbix.DiskDiscovery(devs))
		})
	},
}

func printDiscovery(doc zabbix.Discovery) error {
	data, err := doc.Marshal()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

func init() {
	discoverCmd.PersistentFlags().StringVarP(&discoverDomain, "domain", "d", "",
		"UUID of the domain to be queried")

	discoverCmd.AddCommand(discoverDomainsCmd)
	discoverCmd.AddCommand(discoverNICsCmd)
	discoverCmd.AddCommand(discoverDisksCmd)
	rootCmd.AddCommand(discoverCmd)
}
