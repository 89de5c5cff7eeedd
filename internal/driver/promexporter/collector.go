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

// Package promexporter exposes inspector samples as Prometheus metrics. Each
// scrape performs one discovery sweep and samples every domain; failures on
// individual domains are logged and skipped, never fatal to the scrape.
package promexporter

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

var (
	activeDesc = prometheus.NewDesc(
		"libvirt_domain_active",
		"Whether the domain is currently running.",
		[]string{"uuid", "name"}, nil)

	vcpusDesc = prometheus.NewDesc(
		"libvirt_domain_vcpus",
		"Number of virtual CPUs attached to the domain.",
		[]string{"uuid", "name"}, nil)

	cpuTimeDesc = prometheus.NewDesc(
		"libvirt_domain_cpu_seconds_total",
		"Accumulated CPU time averaged per core, in seconds.",
		[]string{"uuid", "name"}, nil)

	memoryFreeDesc = prometheus.NewDesc(
		"libvirt_domain_memory_free_bytes",
		"Memory left unused by the guest.",
		[]string{"uuid", "name"}, nil)

	memoryAvailableDesc = prometheus.NewDesc(
		"libvirt_domain_memory_available_bytes",
		"Memory usable by the guest.",
		[]string{"uuid", "name"}, nil)

	memoryAllocationDesc = prometheus.NewDesc(
		"libvirt_domain_memory_current_allocation_bytes",
		"Memory currently allocated to the guest.",
		[]string{"uuid", "name"}, nil)

	nicReadDesc = prometheus.NewDesc(
		"libvirt_domain_nic_receive_bytes_total",
		"Bytes received on the interface.",
		[]string{"uuid", "name", "device"}, nil)

	nicWriteDesc = prometheus.NewDesc(
		"libvirt_domain_nic_transmit_bytes_total",
		"Bytes transmitted on the interface.",
		[]string{"uuid", "name", "device"}, nil)

	diskReadBytesDesc = prometheus.NewDesc(
		"libvirt_domain_disk_read_bytes_total",
		"Bytes read from the disk.",
		[]string{"uuid", "name", "device"}, nil)

	diskWriteBytesDesc = prometheus.NewDesc(
		"libvirt_domain_disk_write_bytes_total",
		"Bytes written to the disk.",
		[]string{"uuid", "name", "device"}, nil)

	diskReadOpsDesc = prometheus.NewDesc(
		"libvirt_domain_disk_read_ops_total",
		"Read operations on the disk.",
		[]string{"uuid", "name", "device"}, nil)

	diskWriteOpsDesc = prometheus.NewDesc(
		"libvirt_domain_disk_write_ops_total",
		"Write operations on the disk.",
		[]string{"uuid", "name", "device"}, nil)

	diskFlushOpsDesc = prometheus.NewDesc(
		"libvirt_domain_disk_flush_ops_total",
		"Flush operations on the disk.",
		[]string{"uuid", "name", "device"}, nil)
)

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// NewCollector returns a prometheus.Collector over the given inspector.
func NewCollector(inspector controller.Inspector, logger *slog.Logger) prometheus.Collector {
	if logger == nil {
		logger = slog.Default()
	}

	return &collector{
		inspector: inspector,
		logger:    logger,
	}
}

// --------------------------------------------- CONCRETE IMPLEMENTATION -------------------------------------------- //

type collector struct {
	inspector controller.Inspector
	logger    *slog.Logger
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- activeDesc
	ch <- vcpusDesc
	ch <- cpuTimeDesc
	ch <- memoryFreeDesc
	ch <- memoryAvailableDesc
	ch <- memoryAllocationDesc
	ch <- nicReadDesc
	ch <- nicWriteDesc
	ch <- diskReadBytesDesc
	ch <- diskWriteBytesDesc
	ch <- diskReadOpsDesc
	ch <- diskWriteOpsDesc
	ch <- diskFlushOpsDesc
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	refs, err := c.inspector.DiscoverDomains()
	if err != nil {
		c.logger.Error("discovering domains", "error", err)
		return
	}

	for _, ref := range refs {
		c.collectDomain(ch, ref)
	}
}

func (c *collector) collectDomain(ch chan<- prometheus.Metric, ref types.DomainRef) {
	labels := []string{ref.UUID, ref.Name}

	active, err := c.inspector.IsActive(ref.UUID)
	if err != nil {
		c.logger.Warn("skipping domain", "uuid", ref.UUID, "error", err)
		return
	}

	activeValue := 0.0
	if active {
		activeValue = 1.0
	}

	ch <- prometheus.MustNewConstMetric(activeDesc,
		prometheus.GaugeValue, activeValue, labels...)

	cpu, err := c.inspector.CPUStats(ref.UUID)
	if err != nil {
		c.logger.Warn("skipping cpu stats", "uuid", ref.UUID, "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(vcpusDesc,
			prometheus.GaugeValue, float64(cpu.CoreCount), labels...)
		ch <- prometheus.MustNewConstMetric(cpuTimeDesc,
			prometheus.CounterValue, float64(cpu.CPUTime)/1e9, labels...)
	}

	memory, err := c.inspector.MemoryStats(ref.UUID)
	if err != nil {
		c.logger.Warn("skipping memory stats", "uuid", ref.UUID, "error", err)
	} else {
		ch <- prometheus.MustNewConstMetric(memoryFreeDesc,
			prometheus.GaugeValue, float64(memory.Free), labels...)
		ch <- prometheus.MustNewConstMetric(memoryAvailableDesc,
			prometheus.GaugeValue, float64(memory.Available), labels...)
		ch <- prometheus.MustNewConstMetric(memoryAllocationDesc,
			prometheus.GaugeValue, float64(memory.CurrentAllocation), labels...)
	}

	c.collectNICs(ch, ref, labels)
	c.collectDisks(ch, ref, labels)
}

func (c *collector) collectNICs(ch chan<- prometheus.Metric, ref types.DomainRef, labels []string) {
	devs, err := c.inspector.DiscoverInterfaces(ref.UUID)
	if err != nil {
		c.logger.Warn("skipping nic discovery", "uuid", ref.UUID, "error", err)
		return
	}

	for _, dev := range devs {
		io, err := c.inspector.InterfaceIO(ref.UUID, dev)
		if err != nil {
			c.logger.Warn("skipping nic stats", "uuid", ref.UUID, "device", dev, "error", err)
			continue
		}

		devLabels := append(labels[:2:2], dev)
		ch <- prometheus.MustNewConstMetric(nicReadDesc,
			prometheus.CounterValue, float64(io.Read), devLabels...)
		ch <- prometheus.MustNewConstMetric(nicWriteDesc,
			prometheus.CounterValue, float64(io.Write), devLabels...)
	}
}

func (c *collector) collectDisks(ch chan<- prometheus.Metric, ref types.DomainRef, labels []string) {
	devs, err := c.inspector.DiscoverDisks(ref.UUID)
	if err != nil {
		c.logger.Warn("skipping disk discovery", "uuid", ref.UUID, "error", err)
		return
	}

	for _, dev := range devs {
		io, err := c.inspector.DiskIO(ref.UUID, dev)
		if err != nil {
			c.logger.Warn("skipping disk stats", "uuid", ref.UUID, "device", dev, "error", err)
			continue
		}

		devLabels := append(labels[:2:2], dev)
		ch <- prometheus.MustNewConstMetric(diskReadBytesDesc,
			prometheus.CounterValue, float64(io.ReadBytes), devLabels...)
		ch <- prometheus.MustNewConstMetric(diskWriteBytesDesc,
			prometheus.CounterValue, float64(io.WriteBytes), devLabels...)
		ch <- prometheus.MustNewConstMetric(diskReadOpsDesc,
			prometheus.CounterValue, float64(io.ReadOps), devLabels...)
		ch <- prometheus.MustNewConstMetric(diskWriteOpsDesc,
			prometheus.CounterValue, float64(io.WriteOps), devLabels...)
		ch <- prometheus.MustNewConstMetric(diskFlushOpsDesc,
			prometheus.CounterValue, float64(io.FlushOps), devLabels...)
	}
}
