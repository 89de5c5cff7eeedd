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

package controller

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

// ErrUnknownField reports a field selector that does not exist in the
// requested metric group.
var ErrUnknownField = errors.New("unknown field")

// Field is one named scalar of a metric group. Field names are the stable
// identifiers of the reporting contract; the per-group functions below
// enumerate them in a fixed order.
type Field struct {
	Name  string
	Value string
}

// LookupField returns the value of the named field.
func LookupField(fields []Field, name string) (string, error) {
	for _, field := range fields {
		if field.Name == name {
			return field.Value, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// CPUFields enumerates the CPU sample fields. The capture timestamp is not a
// field; it travels with the batched samples instead.
func CPUFields(stats types.CPUStats) []Field {
	return []Field{
		{Name: "cpu_time", Value: strconv.FormatUint(stats.CPUTime, 10)},
		{Name: "core_count", Value: strconv.FormatUint(uint64(stats.CoreCount), 10)},
	}
}

// MemoryFields enumerates the memory sample fields, in bytes.
func MemoryFields(stats types.MemoryStats) []Field {
	return []Field{
		{Name: "free", Value: strconv.FormatUint(stats.Free, 10)},
		{Name: "available", Value: strconv.FormatUint(stats.Available, 10)},
		{Name: "current_allocation", Value: strconv.FormatUint(stats.CurrentAllocation, 10)},
	}
}

// InterfaceFields enumerates the NIC I/O sample fields.
func InterfaceFields(io types.InterfaceIO) []Field {
	return []Field{
		{Name: "read", Value: strconv.FormatInt(io.Read, 10)},
		{Name: "write", Value: strconv.FormatInt(io.Write, 10)},
	}
}

// DiskFields enumerates the disk I/O sample fields.
func DiskFields(io types.DiskIO) []Field {
	return []Field{
		{Name: "rd_bytes", Value: strconv.FormatInt(io.ReadBytes, 10)},
		{Name: "wr_bytes", Value: strconv.FormatInt(io.WriteBytes, 10)},
		{Name: "rd_operations", Value: strconv.FormatInt(io.ReadOps, 10)},
		{Name: "wr_operations", Value: strconv.FormatInt(io.WriteOps, 10)},
		{Name: "flush_operations", Value: strconv.FormatInt(io.FlushOps, 10)},
		{Name: "rd_total_times", Value: strconv.FormatInt(io.ReadTime, 10)},
		{Name: "wr_total_times", Value: strconv.FormatInt(io.WriteTime, 10)},
		{Name: "flush_total_times", Value: strconv.FormatInt(io.FlushTime, 10)},
	}
}

// InstanceFields enumerates the instance attribute fields.
func InstanceFields(attrs types.InstanceAttributes) []Field {
	return []Field{
		{Name: "user_uuid", Value: attrs.UserUUID},
		{Name: "project_uuid", Value: attrs.ProjectUUID},
		{Name: "user_name", Value: attrs.UserName},
		{Name: "project_name", Value: attrs.ProjectName},
		{Name: "virt_host", Value: attrs.VirtHost},
		{Name: "name", Value: attrs.Name},
		{Name: "active", Value: formatBool(attrs.Active)},
	}
}

// formatBool renders booleans the way the backend stores them.
func formatBool(b bool) string {
	if b {
		return "1"
	}

	return "0"
}
