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

package controller_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

func TestLookupField(t *testing.T) {
	fields := controller.MemoryFields(types.MemoryStats{Free: 1024, Available: 2048})

	value, err := controller.LookupField(fields, "free")
	require.NoError(t, err)
	assert.Equal(t, "1024", value)

	_, err = controller.LookupField(fields, "free_bytes")
	require.ErrorIs(t, err, controller.ErrUnknownField)
}

func TestDiskFieldNames(t *testing.T) {
	fields := controller.DiskFields(types.DiskIO{})

	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}

	assert.Equal(t, []string{
		"rd_bytes", "wr_bytes",
		"rd_operations", "wr_operations", "flush_operations",
		"rd_total_times", "wr_total_times", "flush_total_times",
	}, names)
}

func TestInstanceFields(t *testing.T) {
	attrs := types.InstanceAttributes{
		OwnerMetadata: types.NonOpenstackOwner(),
		VirtHost:      "virt-host.example.com",
		Name:          "build-host",
		Active:        false,
	}

	fields := controller.InstanceFields(attrs)

	value, err := controller.LookupField(fields, "user_uuid")
	require.NoError(t, err)
	assert.Equal(t, types.NonOpenstackInstance, value)

	value, err = controller.LookupField(fields, "active")
	require.NoError(t, err)
	assert.Equal(t, "0", value)

	value, err = controller.LookupField(fields, "virt_host")
	require.NoError(t, err)
	assert.Equal(t, "virt-host.example.com", value)
}
