/*
Copyright 2024 Alexandre Mahdhaoui

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

//go:build unit

package zabbix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/virtzab/internal/driver/zabbix"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

func TestDomainDiscovery(t *testing.T) {
	doc := zabbix.DomainDiscovery([]types.DomainRef{
		{UUID: "uuid-1", Name: "one"},
		{UUID: "uuid-2", Name: "two"},
	})

	data, err := doc.Marshal()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"data": [
			{"{#DOMAINUUID}": "uuid-1", "{#DOMAINNAME}": "one"},
			{"{#DOMAINUUID}": "uuid-2", "{#DOMAINNAME}": "two"}
		]
	}`, string(data))
}

func TestNICDiscovery(t *testing.T) {
	data, err := zabbix.NICDiscovery([]string{"tap0", "tap1"}).Marshal()
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"data": [
			{"{#VNIC}": "tap0"},
			{"{#VNIC}": "tap1"}
		]
	}`, string(data))
}

func TestDiskDiscovery(t *testing.T) {
	data, err := zabbix.DiskDiscovery([]string{"vda"}).Marshal()
	require.NoError(t, err)

	assert.JSONEq(t, `{"data": [{"{#VDISK}": "vda"}]}`, string(data))
}

// A device-less domain must yield an empty array, never null; the backend
// treats null data as a broken discovery rule.
func TestDiscoveryEmpty(t *testing.T) {
	data, err := zabbix.NICDiscovery(nil).Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, `{"data": []}`, string(data))

	rows, err := zabbix.DiskDiscovery(nil).MarshalRows()
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(rows))
}

func TestMarshalRows(t *testing.T) {
	rows, err := zabbix.NICDiscovery([]string{"tap0"}).MarshalRows()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"{#VNIC}": "tap0"}]`, string(rows))
}
