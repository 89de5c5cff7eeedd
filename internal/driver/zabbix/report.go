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

package zabbix

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alexandremahdhaoui/virtzab/internal/adapter"
	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

// Item keys under which samples are submitted. Per-device samples carry the
// device name as the first key parameter.
const (
	KeyNICDiscovery  = "libvirt.nic.discover"
	KeyDiskDiscovery = "libvirt.disk.discover"

	fmtItemKey = "libvirt.%s[%s]"
)

var ErrBuildReport = errors.New("building report")

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// NewReporter returns a Reporter building batched sample sets from the given
// inspector.
func NewReporter(inspector controller.Inspector) *Reporter {
	return &Reporter{inspector: inspector}
}

// Reporter composes inspector samples into the batched tuples the trapper
// sender submits.
type Reporter struct {
	inspector controller.Inspector
}

// --------------------------------------------- InstanceReport ----------------------------------------------------- //

// InstanceReport builds the full sample set for one domain: the NIC and disk
// discovery documents, then every cpu, memory, instance, per-disk and
// per-NIC field. All metric samples share the CPU capture timestamp.
func (r *Reporter) InstanceReport(uuid string) ([]types.Sample, error) {
	vnics, err := r.inspector.DiscoverInterfaces(uuid)
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	vdisks, err := r.inspector.DiscoverDisks(uuid)
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	samples := make([]types.Sample, 0, 16)

	nicRows, err := NICDiscovery(vnics).MarshalRows()
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	diskRows, err := DiskDiscovery(vdisks).MarshalRows()
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	samples = append(samples,
		types.Sample{Host: uuid, Key: KeyNICDiscovery, Value: string(nicRows)},
		types.Sample{Host: uuid, Key: KeyDiskDiscovery, Value: string(diskRows)},
	)

	cpu, err := r.inspector.CPUStats(uuid)
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	clock := cpu.Timestamp.Unix()
	samples = appendFields(samples, uuid, "cpu", clock, controller.CPUFields(cpu))

	memory, err := r.inspector.MemoryStats(uuid)
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	samples = appendFields(samples, uuid, "memory", clock, controller.MemoryFields(memory))

	attrs, err := r.inspector.MiscAttributes(uuid)
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	samples = appendFields(samples, uuid, "instance", clock, controller.InstanceFields(attrs))

	for _, dev := range vdisks {
		io, err := r.inspector.DiskIO(uuid, dev)
		if err != nil {
			return nil, errors.Join(err, ErrBuildReport)
		}

		samples = appendDeviceFields(samples, uuid, "disk", dev, clock, controller.DiskFields(io))
	}

	for _, dev := range vnics {
		io, err := r.inspector.InterfaceIO(uuid, dev)
		if err != nil {
			return nil, errors.Join(err, ErrBuildReport)
		}

		samples = appendDeviceFields(samples, uuid, "nic", dev, clock, controller.InterfaceFields(io))
	}

	return samples, nil
}

// --------------------------------------------- HostReport --------------------------------------------------------- //

// HostReport builds the sample sets of every domain on the host. Domains
// deleted between discovery and sampling are logged and skipped; the sweep
// never aborts on them.
func (r *Reporter) HostReport(ctx context.Context) ([]types.Sample, error) {
	refs, err := r.inspector.DiscoverDomains()
	if err != nil {
		return nil, errors.Join(err, ErrBuildReport)
	}

	samples := []types.Sample{}

	for _, ref := range refs {
		instanceSamples, err := r.InstanceReport(ref.UUID)
		if errors.Is(err, adapter.ErrDomainNotFound) {
			slog.WarnContext(ctx, "domain vanished during report sweep",
				"uuid", ref.UUID, "name", ref.Name)

			continue
		} else if err != nil {
			return nil, err
		}

		samples = append(samples, instanceSamples...)
	}

	return samples, nil
}

// --------------------------------------------- Helpers ------------------------------------------------------------ //

func appendFields(
	samples []types.Sample,
	uuid, group string,
	clock int64,
	fields []controller.Field,
) []types.Sample {
	for _, field := range fields {
		samples = append(samples, types.Sample{
			Host:  uuid,
			Key:   fmt.Sprintf(fmtItemKey, group, field.Name),
			Value: field.Value,
			Clock: clock,
		})
	}

	return samples
}

func appendDeviceFields(
	samples []types.Sample,
	uuid, group, dev string,
	clock int64,
	fields []controller.Field,
) []types.Sample {
	for _, field := range fields {
		samples = append(samples, types.Sample{
			Host:  uuid,
			Key:   fmt.Sprintf(fmtItemKey, group, dev+","+field.Name),
			Value: field.Value,
			Clock: clock,
		})
	}

	return samples
}
