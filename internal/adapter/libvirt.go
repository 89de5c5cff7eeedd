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

package adapter

import (
	"errors"
	"fmt"

	"libvirt.org/go/libvirt"

	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

// --------------------------------------------------- CONSTRUCTORS ------------------------------------------------- //

// Connect opens a read-only session to the hypervisor at the given URI.
//
// The libvirt binding installs a process-wide no-op error callback at init,
// so native client diagnostics never reach stderr; failures surface only
// through returned errors. Connect additionally guards against the open call
// succeeding with a nil handle.
func Connect(uri string) (Hypervisor, error) {
	conn, err := libvirt.NewConnectReadOnly(uri)
	if err != nil {
		return nil, errors.Join(err, ErrConnect)
	}

	if conn == nil {
		return nil, fmt.Errorf("%w: nil handle for %q", ErrConnect, uri)
	}

	return &libvirtHypervisor{conn: conn}, nil
}

// --------------------------------------------- CONCRETE IMPLEMENTATION -------------------------------------------- //

type libvirtHypervisor struct {
	conn *libvirt.Connect
}

func (h *libvirtHypervisor) ListDomains() ([]types.DomainRef, error) {
	domains, err := h.conn.ListAllDomains(0)
	if err != nil {
		return nil, errors.Join(err, errListDomains)
	}

	refs := make([]types.DomainRef, 0, len(domains))

	for i := range domains {
		dom := &domains[i]

		uuid, err := dom.GetUUIDString()
		if err != nil {
			_ = dom.Free()
			return nil, errors.Join(err, errListDomains)
		}

		name, err := dom.GetName()
		if err != nil {
			_ = dom.Free()
			return nil, errors.Join(err, errListDomains)
		}

		refs = append(refs, types.DomainRef{UUID: uuid, Name: name})
		_ = dom.Free()
	}

	return refs, nil
}

// LookupDomain maps every lookup failure to ErrDomainNotFound: a read-only
// session has no other reason to fail resolving a UUID, and the underlying
// libvirt error stays in the join chain for diagnostics.
func (h *libvirtHypervisor) LookupDomain(uuid string) (Domain, error) {
	dom, err := h.conn.LookupDomainByUUIDString(uuid)
	if err != nil {
		return nil, errors.Join(err, fmt.Errorf("%w: %s", ErrDomainNotFound, uuid))
	}

	return &libvirtDomain{dom: dom}, nil
}

func (h *libvirtHypervisor) Hostname() (string, error) {
	hostname, err := h.conn.GetHostname()
	if err != nil {
		return "", errors.Join(err, errHostname)
	}

	return hostname, nil
}

func (h *libvirtHypervisor) Close() error {
	_, err := h.conn.Close()
	return err
}

// --------------------------------------------- DOMAIN HANDLE ------------------------------------------------------ //

type libvirtDomain struct {
	dom *libvirt.Domain
}

func (d *libvirtDomain) UUID() (string, error) {
	return d.dom.GetUUIDString()
}

func (d *libvirtDomain) Name() (string, error) {
	return d.dom.GetName()
}

func (d *libvirtDomain) XMLDesc() (string, error) {
	return d.dom.GetXMLDesc(0)
}

func (d *libvirtDomain) Info() (types.DomainInfo, error) {
	info, err := d.dom.GetInfo()
	if err != nil {
		return types.DomainInfo{}, err
	}

	return types.DomainInfo{
		Active:    info.State == libvirt.DOMAIN_RUNNING,
		CoreCount: info.NrVirtCpu,
		CPUTime:   info.CpuTime,
	}, nil
}

func (d *libvirtDomain) MemoryStats() (types.MemoryCounters, error) {
	stats, err := d.dom.MemoryStats(uint32(libvirt.DOMAIN_MEMORY_STAT_NR), 0)
	if err != nil {
		return types.MemoryCounters{}, err
	}

	counters := types.MemoryCounters{}

	for _, stat := range stats {
		switch stat.Tag {
		case int32(libvirt.DOMAIN_MEMORY_STAT_UNUSED):
			counters.Unused = stat.Val
		case int32(libvirt.DOMAIN_MEMORY_STAT_USABLE):
			counters.Usable = stat.Val
		case int32(libvirt.DOMAIN_MEMORY_STAT_ACTUAL_BALLOON):
			counters.ActualBalloon = stat.Val
		}
	}

	return counters, nil
}

func (d *libvirtDomain) InterfaceStats(dev string) (types.InterfaceIO, error) {
	stats, err := d.dom.InterfaceStats(dev)
	if err != nil {
		return types.InterfaceIO{}, err
	}

	return types.InterfaceIO{
		Read:  stats.RxBytes,
		Write: stats.TxBytes,
	}, nil
}

func (d *libvirtDomain) BlockStats(dev string) (types.DiskIO, error) {
	stats, err := d.dom.BlockStatsFlags(dev, 0)
	if err != nil {
		return types.DiskIO{}, err
	}

	return types.DiskIO{
		ReadBytes:  stats.RdBytes,
		WriteBytes: stats.WrBytes,
		ReadOps:    stats.RdReq,
		WriteOps:   stats.WrReq,
		FlushOps:   stats.FlushReq,
		ReadTime:   stats.RdTotalTimes,
		WriteTime:  stats.WrTotalTimes,
		FlushTime:  stats.FlushTotalTimes,
	}, nil
}

func (d *libvirtDomain) IsActive() (bool, error) {
	return d.dom.IsActive()
}

func (d *libvirtDomain) Free() error {
	return d.dom.Free()
}
