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

package types

import "time"

// -------------------------------------------------- DOMAIN -------------------------------------------------------- //

// DomainRef identifies a guest domain known to the hypervisor.
//
// The UUID is stable for the lifetime of the domain; the name is mutable and
// must not be used as a lookup key.
type DomainRef struct {
	UUID string
	Name string
}

// DomainInfo is the raw info block of a domain as reported by the hypervisor.
type DomainInfo struct {
	// Active reports whether the domain is currently running.
	Active bool
	// CoreCount is the number of virtual CPUs attached to the domain.
	CoreCount uint
	// CPUTime is the total accumulated CPU time in nanoseconds, summed over
	// all cores.
	CPUTime uint64
}

// -------------------------------------------------- SAMPLES ------------------------------------------------------- //

// MemoryCounters are the raw live memory counters of a domain, in KiB as
// reported by the hypervisor.
type MemoryCounters struct {
	Unused        uint64
	Usable        uint64
	ActualBalloon uint64
}

// MemoryStats is a point-in-time memory sample, in bytes.
//
// Mapping to the counters reported by the hypervisor:
//
//	Free              = unused
//	Available         = usable
//	CurrentAllocation = actual balloon size
type MemoryStats struct {
	Free              uint64
	Available         uint64
	CurrentAllocation uint64
}

// CPUStats is a point-in-time CPU sample.
//
// CPUTime is the accumulated CPU time in nanoseconds averaged per core, i.e.
// raw accumulated time divided by CoreCount. Callers compute utilization by
// differencing two samples over elapsed wall-clock time.
type CPUStats struct {
	CPUTime   uint64
	CoreCount uint
	Timestamp time.Time
}

// InterfaceIO holds cumulative byte counters for one virtual NIC.
type InterfaceIO struct {
	Read  int64
	Write int64
}

// DiskIO holds cumulative I/O counters for one virtual disk. Times are in
// nanoseconds.
type DiskIO struct {
	ReadBytes  int64
	WriteBytes int64
	ReadOps    int64
	WriteOps   int64
	FlushOps   int64
	ReadTime   int64
	WriteTime  int64
	FlushTime  int64
}

// -------------------------------------------------- METADATA ------------------------------------------------------ //

// NonOpenstackInstance is the marker reported for every OwnerMetadata field
// of a domain whose descriptor carries no Nova metadata block.
const NonOpenstackInstance = "non-openstack-instance"

// OwnerMetadata is the OpenStack ownership identity embedded in a managed
// domain's descriptor.
type OwnerMetadata struct {
	UserUUID    string
	ProjectUUID string
	UserName    string
	ProjectName string
}

// NonOpenstackOwner returns the sentinel OwnerMetadata reported for domains
// that are not managed by OpenStack.
func NonOpenstackOwner() OwnerMetadata {
	return OwnerMetadata{
		UserUUID:    NonOpenstackInstance,
		ProjectUUID: NonOpenstackInstance,
		UserName:    NonOpenstackInstance,
		ProjectName: NonOpenstackInstance,
	}
}

// InstanceAttributes combines ownership metadata with host-level identity.
type InstanceAttributes struct {
	OwnerMetadata

	// VirtHost is the hostname reported by the hypervisor.
	VirtHost string
	// Name is the domain's display name.
	Name string
	// Active reports whether the domain is currently running.
	Active bool
}
