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

// Package hypervisorfake provides an in-memory adapter.Hypervisor for tests.
// Fixtures describe the host's domains; per-query error fields simulate the
// failures a live hypervisor produces for stopped guests.
package hypervisorfake

import (
	"errors"
	"fmt"

	"github.com/alexandremahdhaoui/virtzab/internal/adapter"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

// DomainFixture is the scripted state of one fake domain.
type DomainFixture struct {
	UUID   string
	Name   string
	Active bool

	// XML is the descriptor document returned by XMLDesc.
	XML string

	Info   types.DomainInfo
	Memory types.MemoryCounters
	NICIO  map[string]types.InterfaceIO
	DiskIO map[string]types.DiskIO

	// Non-nil errors make the corresponding query fail.
	MemoryErr error
	NICErr    error
	DiskErr   error
	ActiveErr error
}

// Fake implements adapter.Hypervisor over a set of fixtures.
type Fake struct {
	HostnameValue string
	Fixtures      []*DomainFixture

	// LookupCount counts LookupDomain calls, successful or not.
	LookupCount int
	// FreedCount counts Free calls on handed-out domain handles.
	FreedCount int

	// ListErr makes ListDomains fail.
	ListErr error
}

// New returns a Fake hosting the given fixtures.
func New(fixtures ...*DomainFixture) *Fake {
	return &Fake{
		HostnameValue: "virt-host.example.com",
		Fixtures:      fixtures,
	}
}

func (f *Fake) ListDomains() ([]types.DomainRef, error) {
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	refs := make([]types.DomainRef, 0, len(f.Fixtures))
	for _, fixture := range f.Fixtures {
		refs = append(refs, types.DomainRef{UUID: fixture.UUID, Name: fixture.Name})
	}

	return refs, nil
}

func (f *Fake) LookupDomain(uuid string) (adapter.Domain, error) {
	f.LookupCount++

	for _, fixture := range f.Fixtures {
		if fixture.UUID == uuid {
			return &fakeDomain{fake: f, fixture: fixture}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", adapter.ErrDomainNotFound, uuid)
}

func (f *Fake) Hostname() (string, error) {
	return f.HostnameValue, nil
}

func (f *Fake) Close() error {
	return nil
}

// Remove deletes a fixture, simulating a domain vanishing between discovery
// and sampling.
func (f *Fake) Remove(uuid string) {
	kept := f.Fixtures[:0]
	for _, fixture := range f.Fixtures {
		if fixture.UUID != uuid {
			kept = append(kept, fixture)
		}
	}
	f.Fixtures = kept
}

// --------------------------------------------- DOMAIN HANDLE ------------------------------------------------------ //

type fakeDomain struct {
	fake    *Fake
	fixture *DomainFixture
}

func (d *fakeDomain) UUID() (string, error) {
	return d.fixture.UUID, nil
}

func (d *fakeDomain) Name() (string, error) {
	return d.fixture.Name, nil
}

func (d *fakeDomain) XMLDesc() (string, error) {
	if d.fixture.XML == "" {
		return "", errors.New("no descriptor fixture")
	}

	return d.fixture.XML, nil
}

func (d *fakeDomain) Info() (types.DomainInfo, error) {
	return d.fixture.Info, nil
}

func (d *fakeDomain) MemoryStats() (types.MemoryCounters, error) {
	if d.fixture.MemoryErr != nil {
		return types.MemoryCounters{}, d.fixture.MemoryErr
	}

	return d.fixture.Memory, nil
}

func (d *fakeDomain) InterfaceStats(dev string) (types.InterfaceIO, error) {
	if d.fixture.NICErr != nil {
		return types.InterfaceIO{}, d.fixture.NICErr
	}

	io, ok := d.fixture.NICIO[dev]
	if !ok {
		return types.InterfaceIO{}, fmt.Errorf("no such interface: %s", dev)
	}

	return io, nil
}

func (d *fakeDomain) BlockStats(dev string) (types.DiskIO, error) {
	if d.fixture.DiskErr != nil {
		return types.DiskIO{}, d.fixture.DiskErr
	}

	io, ok := d.fixture.DiskIO[dev]
	if !ok {
		return types.DiskIO{}, fmt.Errorf("no such disk: %s", dev)
	}

	return io, nil
}

func (d *fakeDomain) IsActive() (bool, error) {
	if d.fixture.ActiveErr != nil {
		return false, d.fixture.ActiveErr
	}

	return d.fixture.Active, nil
}

func (d *fakeDomain) Free() error {
	d.fake.FreedCount++
	return nil
}
