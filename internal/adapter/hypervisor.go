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

// Package adapter wraps the hypervisor client library behind a capability
// interface. It owns the read-only session and translates low-level failures
// into the two error kinds the rest of the system branches on.
package adapter

import (
	"errors"

	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

var (
	// ErrConnect reports that the read-only session to the hypervisor could
	// not be opened: invalid URI, unreachable host, or a nil handle returned
	// by the client library.
	ErrConnect = errors.New("connecting to hypervisor")

	// ErrDomainNotFound reports that a UUID did not resolve to any domain
	// known to the host.
	ErrDomainNotFound = errors.New("domain not found")

	errListDomains = errors.New("listing domains")
	errHostname    = errors.New("querying hypervisor hostname")
)

// --------------------------------------------------- INTERFACES --------------------------------------------------- //

// Hypervisor is one read-only connection to a virtualization host. Its
// lifetime is the process invocation; there is no reconnect or pooling.
type Hypervisor interface {
	// ListDomains enumerates all domains known to the host, regardless of
	// power state.
	ListDomains() ([]types.DomainRef, error)

	// LookupDomain resolves a domain by UUID. It fails with
	// ErrDomainNotFound when the UUID does not resolve; it never returns a
	// partial handle. The returned handle is valid for one operation and
	// must be released with Free.
	LookupDomain(uuid string) (Domain, error)

	// Hostname returns the hostname reported by the hypervisor.
	Hostname() (string, error)

	// Close releases the connection.
	Close() error
}

// Domain is a freshly resolved handle to one guest domain. Handles are never
// cached: every domain-scoped operation re-resolves by UUID first.
type Domain interface {
	// UUID returns the domain's UUID string.
	UUID() (string, error)

	// Name returns the domain's display name.
	Name() (string, error)

	// XMLDesc returns the domain's descriptor document.
	XMLDesc() (string, error)

	// Info returns the domain's raw info block.
	Info() (types.DomainInfo, error)

	// MemoryStats queries the live memory counters, in KiB. It errors when
	// the domain is not running; callers decide whether that is expected.
	MemoryStats() (types.MemoryCounters, error)

	// InterfaceStats queries cumulative I/O counters for one NIC by its
	// target device name.
	InterfaceStats(dev string) (types.InterfaceIO, error)

	// BlockStats queries cumulative I/O counters for one disk by its target
	// device name.
	BlockStats(dev string) (types.DiskIO, error)

	// IsActive reports whether the domain is currently running.
	IsActive() (bool, error)

	// Free releases the handle.
	Free() error
}
