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
	"time"

	"github.com/alexandremahdhaoui/virtzab/internal/adapter"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

var (
	ErrInspectDomain = errors.New("inspecting domain")

	errDescriptor     = errors.New("fetching domain descriptor")
	errMemoryStats    = errors.New("querying memory stats")
	errCPUStats       = errors.New("querying cpu stats")
	errInterfaceStats = errors.New("querying interface stats")
	errBlockStats     = errors.New("querying block stats")
	errActiveCheck    = errors.New("querying active state")
)

// ---------------------------------------------------- INTERFACES -------------------------------------------------- //

// Inspector samples point-in-time metrics of guest domains. Every
// domain-scoped operation re-resolves the domain by UUID through the
// hypervisor first; handles are never reused across calls, so each operation
// is independently retryable.
type Inspector interface {
	// DiscoverDomains enumerates all domains known to the host, regardless
	// of power state.
	DiscoverDomains() ([]types.DomainRef, error)

	// DiscoverInterfaces returns the target device names of the domain's
	// network interfaces.
	DiscoverInterfaces(uuid string) ([]string, error)

	// DiscoverDisks returns the target device names of the domain's disks.
	DiscoverDisks(uuid string) ([]string, error)

	// MemoryStats samples the domain's live memory counters, in bytes.
	MemoryStats(uuid string) (types.MemoryStats, error)

	// CPUStats samples the domain's accumulated CPU time, averaged per core.
	CPUStats(uuid string) (types.CPUStats, error)

	// InterfaceIO samples cumulative I/O counters for one NIC.
	InterfaceIO(uuid, dev string) (types.InterfaceIO, error)

	// DiskIO samples cumulative I/O counters for one disk.
	DiskIO(uuid, dev string) (types.DiskIO, error)

	// OwnerMetadata extracts the OpenStack ownership identity from the
	// domain's descriptor, or the sentinel record when absent.
	OwnerMetadata(uuid string) (types.OwnerMetadata, error)

	// MiscAttributes combines OwnerMetadata with the hypervisor hostname,
	// the domain's display name and its active state.
	MiscAttributes(uuid string) (types.InstanceAttributes, error)

	// IsActive reports whether the domain is currently running.
	IsActive(uuid string) (bool, error)
}

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// NewInspector returns a new Inspector backed by the given hypervisor
// connection.
func NewInspector(hv adapter.Hypervisor) Inspector {
	return &inspector{hv: hv}
}

// --------------------------------------------- CONCRETE IMPLEMENTATION -------------------------------------------- //

type inspector struct {
	hv adapter.Hypervisor
}

// --------------------------------------------- Discovery ---------------------------------------------------------- //

func (i *inspector) DiscoverDomains() ([]types.DomainRef, error) {
	return i.hv.ListDomains()
}

func (i *inspector) DiscoverInterfaces(uuid string) ([]string, error) {
	desc, err := i.descriptor(uuid)
	if err != nil {
		return nil, err
	}

	return desc.InterfaceNames(), nil
}

func (i *inspector) DiscoverDisks(uuid string) ([]string, error) {
	desc, err := i.descriptor(uuid)
	if err != nil {
		return nil, err
	}

	return desc.DiskNames(), nil
}

// --------------------------------------------- Samples ------------------------------------------------------------ //

func (i *inspector) MemoryStats(uuid string) (types.MemoryStats, error) {
	dom, err := i.hv.LookupDomain(uuid)
	if err != nil {
		return types.MemoryStats{}, errors.Join(err, ErrInspectDomain)
	}
	defer func() { _ = dom.Free() }()

	counters, err := dom.MemoryStats()
	if err != nil {
		// A stopped domain has no live memory counters: the query failure is
		// expected and the sample degrades to zero. On a running domain the
		// same failure is a genuine fault and escalates unchanged.
		if degraded, derr := i.degrade(dom, err, errMemoryStats); derr != nil {
			return types.MemoryStats{}, derr
		} else if degraded {
			return types.MemoryStats{}, nil
		}
	}

	// The hypervisor reports KiB.
	return types.MemoryStats{
		Free:              counters.Unused * 1024,
		Available:         counters.Usable * 1024,
		CurrentAllocation: counters.ActualBalloon * 1024,
	}, nil
}

func (i *inspector) CPUStats(uuid string) (types.CPUStats, error) {
	dom, err := i.hv.LookupDomain(uuid)
	if err != nil {
		return types.CPUStats{}, errors.Join(err, ErrInspectDomain)
	}
	defer func() { _ = dom.Free() }()

	info, err := dom.Info()
	if err != nil {
		return types.CPUStats{}, errors.Join(err, errCPUStats, ErrInspectDomain)
	}

	timestamp := time.Now()

	// Report the average per-core cumulative time. Rate computation by
	// differencing two samples is the caller's job.
	cpuTime := uint64(0)
	if info.CoreCount > 0 {
		cpuTime = info.CPUTime / uint64(info.CoreCount)
	}

	return types.CPUStats{
		CPUTime:   cpuTime,
		CoreCount: info.CoreCount,
		Timestamp: timestamp,
	}, nil
}

func (i *inspector) InterfaceIO(uuid, dev string) (types.InterfaceIO, error) {
	dom, err := i.hv.LookupDomain(uuid)
	if err != nil {
		return types.InterfaceIO{}, errors.Join(err, ErrInspectDomain)
	}
	defer func() { _ = dom.Free() }()

	io, err := dom.InterfaceStats(dev)
	if err != nil {
		if degraded, derr := i.degrade(dom, err, errInterfaceStats); derr != nil {
			return types.InterfaceIO{}, derr
		} else if degraded {
			return types.InterfaceIO{}, nil
		}
	}

	return io, nil
}

func (i *inspector) DiskIO(uuid, dev string) (types.DiskIO, error) {
	dom, err := i.hv.LookupDomain(uuid)
	if err != nil {
		return types.DiskIO{}, errors.Join(err, ErrInspectDomain)
	}
	defer func() { _ = dom.Free() }()

	io, err := dom.BlockStats(dev)
	if err != nil {
		if degraded, derr := i.degrade(dom, err, errBlockStats); derr != nil {
			return types.DiskIO{}, derr
		} else if degraded {
			return types.DiskIO{}, nil
		}
	}

	return io, nil
}

// --------------------------------------------- Metadata ----------------------------------------------------------- //

func (i *inspector) OwnerMetadata(uuid string) (types.OwnerMetadata, error) {
	desc, err := i.descriptor(uuid)
	if err != nil {
		return types.OwnerMetadata{}, err
	}

	return desc.Owner(), nil
}

func (i *inspector) MiscAttributes(uuid string) (types.InstanceAttributes, error) {
	dom, err := i.hv.LookupDomain(uuid)
	if err != nil {
		return types.InstanceAttributes{}, errors.Join(err, ErrInspectDomain)
	}
	defer func() { _ = dom.Free() }()

	name, err := dom.Name()
	if err != nil {
		return types.InstanceAttributes{}, errors.Join(err, ErrInspectDomain)
	}

	active, err := dom.IsActive()
	if err != nil {
		return types.InstanceAttributes{}, errors.Join(err, errActiveCheck, ErrInspectDomain)
	}

	owner, err := i.OwnerMetadata(uuid)
	if err != nil {
		return types.InstanceAttributes{}, err
	}

	hostname, err := i.hv.Hostname()
	if err != nil {
		return types.InstanceAttributes{}, errors.Join(err, ErrInspectDomain)
	}

	return types.InstanceAttributes{
		OwnerMetadata: owner,
		VirtHost:      hostname,
		Name:          name,
		Active:        active,
	}, nil
}

func (i *inspector) IsActive(uuid string) (bool, error) {
	dom, err := i.hv.LookupDomain(uuid)
	if err != nil {
		return false, errors.Join(err, ErrInspectDomain)
	}
	defer func() { _ = dom.Free() }()

	active, err := dom.IsActive()
	if err != nil {
		return false, errors.Join(err, errActiveCheck, ErrInspectDomain)
	}

	return active, nil
}

// --------------------------------------------- Helpers ------------------------------------------------------------ //

// descriptor re-resolves the domain and parses a fresh copy of its
// descriptor document.
func (i *inspector) descriptor(uuid string) (*descriptor, error) {
	dom, err := i.hv.LookupDomain(uuid)
	if err != nil {
		return nil, errors.Join(err, ErrInspectDomain)
	}
	defer func() { _ = dom.Free() }()

	xmlDesc, err := dom.XMLDesc()
	if err != nil {
		return nil, errors.Join(err, errDescriptor, ErrInspectDomain)
	}

	desc, err := parseDescriptor(xmlDesc)
	if err != nil {
		return nil, errors.Join(err, errDescriptor, ErrInspectDomain)
	}

	return desc, nil
}

// degrade reclassifies a failed live-counter query based on the domain's
// power state, checked after the failure. It returns degraded=true when the
// domain is inactive and the zero-valued sample should be reported, or a
// non-nil error when the failure must escalate. A state flip between the
// failed query and this check is an accepted race; it is not retried.
func (i *inspector) degrade(dom adapter.Domain, queryErr, kind error) (bool, error) {
	active, err := dom.IsActive()
	if err != nil {
		return false, errors.Join(queryErr, err, kind, ErrInspectDomain)
	}

	if active {
		return false, errors.Join(queryErr, kind, ErrInspectDomain)
	}

	return true, nil
}
