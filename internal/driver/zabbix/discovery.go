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

// Package zabbix renders the output shapes the Zabbix backend consumes:
// low-level-discovery documents, batched sample tuples, and the trapper
// submission protocol.
package zabbix

import (
	"encoding/json"

	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

// Low-level-discovery macro tokens. The backend expands them into per-entity
// monitored items.
const (
	MacroDomainUUID = "{#DOMAINUUID}"
	MacroDomainName = "{#DOMAINNAME}"
	MacroVNIC       = "{#VNIC}"
	MacroVDisk      = "{#VDISK}"
)

// Discovery is a low-level-discovery document: a flat list of macro-keyed
// records wrapped in a "data" object.
type Discovery struct {
	Data []map[string]string `json:"data"`
}

// DomainDiscovery builds the discovery document enumerating all domains.
func DomainDiscovery(refs []types.DomainRef) Discovery {
	rows := make([]map[string]string, 0, len(refs))

	for _, ref := range refs {
		rows = append(rows, map[string]string{
			MacroDomainUUID: ref.UUID,
			MacroDomainName: ref.Name,
		})
	}

	return Discovery{Data: rows}
}

// NICDiscovery builds the discovery document enumerating a domain's NICs.
func NICDiscovery(devs []string) Discovery {
	return deviceDiscovery(MacroVNIC, devs)
}

// DiskDiscovery builds the discovery document enumerating a domain's disks.
func DiskDiscovery(devs []string) Discovery {
	return deviceDiscovery(MacroVDisk, devs)
}

func deviceDiscovery(macro string, devs []string) Discovery {
	rows := make([]map[string]string, 0, len(devs))

	for _, dev := range devs {
		rows = append(rows, map[string]string{macro: dev})
	}

	return Discovery{Data: rows}
}

// Marshal renders the document the way the backend expects it: indented,
// with an empty (never null) data array.
func (d Discovery) Marshal() ([]byte, error) {
	if d.Data == nil {
		d.Data = []map[string]string{}
	}

	return json.MarshalIndent(d, "", "  ")
}

// MarshalRows renders only the record list, the shape embedded as the value
// of a batched discovery sample.
func (d Discovery) MarshalRows() ([]byte, error) {
	if d.Data == nil {
		d.Data = []map[string]string{}
	}

	return json.Marshal(d.Data)
}
