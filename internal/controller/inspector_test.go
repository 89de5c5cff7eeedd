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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandremahdhaoui/virtzab/internal/adapter"
	"github.com/alexandremahdhaoui/virtzab/internal/controller"
	"github.com/alexandremahdhaoui/virtzab/internal/types"
	"github.com/alexandremahdhaoui/virtzab/internal/util/fakes/hypervisorfake"
)

const (
	novaUUID    = "11111111-2222-3333-4444-555555555555"
	plainUUID   = "66666666-7777-8888-9999-aaaaaaaaaaaa"
	unknownUUID = "00000000-0000-0000-0000-000000000000"
)

const novaXML = `<domain type="kvm">
  <name>instance-00000042</name>
  <uuid>` + novaUUID + `</uuid>
  <metadata>
    <nova:instance xmlns:nova="http://openstack.org/xmlns/libvirt/nova/1.0">
      <nova:owner>
        <nova:user uuid="2af12723-af1d-4b04-b02e-f95b1f244f6c">alice</nova:user>
        <nova:project uuid="a23f0cf4-1bc5-42c9-aed9-e54a4a8ec2c7">research</nova:project>
      </nova:owner>
    </nova:instance>
  </metadata>
  <devices>
    <interface type="bridge">
      <target dev="tap0"/>
    </interface>
    <interface type="bridge">
      <target dev="tap1"/>
    </interface>
    <disk type="file" device="disk">
      <target dev="vda" bus="virtio"/>
    </disk>
  </devices>
</domain>`

const plainXML = `<domain type="kvm">
  <name>build-host</name>
  <uuid>` + plainUUID + `</uuid>
  <devices>
    <interface type="bridge">
      <target dev="vnet3"/>
    </interface>
    <disk type="file" device="disk">
      <target dev="vda" bus="virtio"/>
    </disk>
    <disk type="file" device="cdrom">
      <target dev="hdc" bus="ide"/>
    </disk>
  </devices>
</domain>`

func novaFixture() *hypervisorfake.DomainFixture {
	return &hypervisorfake.DomainFixture{
		UUID:   novaUUID,
		Name:   "instance-00000042",
		Active: true,
		XML:    novaXML,
		Info:   types.DomainInfo{Active: true, CoreCount: 4, CPUTime: 4_000_000_007},
		Memory: types.MemoryCounters{Unused: 512, Usable: 1024, ActualBalloon: 2048},
		NICIO: map[string]types.InterfaceIO{
			"tap0": {Read: 1111, Write: 2222},
			"tap1": {Read: 3333, Write: 4444},
		},
		DiskIO: map[string]types.DiskIO{
			"vda": {
				ReadBytes: 10, WriteBytes: 20,
				ReadOps: 1, WriteOps: 2, FlushOps: 3,
				ReadTime: 100, WriteTime: 200, FlushTime: 300,
			},
		},
	}
}

func plainFixture() *hypervisorfake.DomainFixture {
	return &hypervisorfake.DomainFixture{
		UUID:   plainUUID,
		Name:   "build-host",
		Active: false,
		XML:    plainXML,
		Info:   types.DomainInfo{Active: false, CoreCount: 2},
	}
}

// ---------------------------------------------------- DISCOVERY --------------------------------------------------- //

func TestDiscoverDomains(t *testing.T) {
	fake := hypervisorfake.New(novaFixture(), plainFixture())
	inspector := controller.NewInspector(fake)

	refs, err := inspector.DiscoverDomains()
	require.NoError(t, err)

	assert.Equal(t, []types.DomainRef{
		{UUID: novaUUID, Name: "instance-00000042"},
		{UUID: plainUUID, Name: "build-host"},
	}, refs)
}

func TestDiscoverInterfaces(t *testing.T) {
	fake := hypervisorfake.New(novaFixture(), plainFixture())
	inspector := controller.NewInspector(fake)

	devs, err := inspector.DiscoverInterfaces(novaUUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tap0", "tap1"}, devs)

	devs, err = inspector.DiscoverInterfaces(plainUUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vnet3"}, devs)
}

func TestDiscoverDisks(t *testing.T) {
	fake := hypervisorfake.New(plainFixture())
	inspector := controller.NewInspector(fake)

	devs, err := inspector.DiscoverDisks(plainUUID)
	require.NoError(t, err)
	assert.Equal(t, []string{"vda", "hdc"}, devs)
}

func TestDiscoverUnknownDomain(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(novaFixture()))

	_, err := inspector.DiscoverInterfaces(unknownUUID)
	require.ErrorIs(t, err, adapter.ErrDomainNotFound)
	require.ErrorIs(t, err, controller.ErrInspectDomain)
}

// ---------------------------------------------------- SAMPLES ----------------------------------------------------- //

func TestMemoryStats(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(novaFixture()))

	stats, err := inspector.MemoryStats(novaUUID)
	require.NoError(t, err)

	// Counters arrive in KiB and are reported in bytes.
	assert.Equal(t, uint64(512*1024), stats.Free)
	assert.Equal(t, uint64(1024*1024), stats.Available)
	assert.Equal(t, uint64(2048*1024), stats.CurrentAllocation)
}

func TestMemoryStatsDegradesOnInactiveDomain(t *testing.T) {
	fixture := plainFixture()
	fixture.MemoryErr = errors.New("Requested operation is not valid: domain is not running")

	inspector := controller.NewInspector(hypervisorfake.New(fixture))

	stats, err := inspector.MemoryStats(plainUUID)
	require.NoError(t, err)
	assert.Equal(t, types.MemoryStats{}, stats)
}

func TestMemoryStatsEscalatesOnActiveDomain(t *testing.T) {
	fixture := novaFixture()
	fixture.MemoryErr = errors.New("internal error: unable to execute QEMU command")

	inspector := controller.NewInspector(hypervisorfake.New(fixture))

	_, err := inspector.MemoryStats(novaUUID)
	require.ErrorIs(t, err, controller.ErrInspectDomain)
	assert.ErrorIs(t, err, fixture.MemoryErr)
}

func TestMemoryStatsEscalatesWhenActiveCheckFails(t *testing.T) {
	fixture := plainFixture()
	fixture.MemoryErr = errors.New("domain is not running")
	fixture.ActiveErr = errors.New("connection reset by peer")

	inspector := controller.NewInspector(hypervisorfake.New(fixture))

	_, err := inspector.MemoryStats(plainUUID)
	require.ErrorIs(t, err, controller.ErrInspectDomain)
	assert.ErrorIs(t, err, fixture.ActiveErr)
}

func TestCPUStats(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(novaFixture()))

	before := time.Now()
	stats, err := inspector.CPUStats(novaUUID)
	require.NoError(t, err)

	// 4_000_000_007 ns over 4 cores truncates to 1_000_000_001.
	assert.Equal(t, uint64(1_000_000_001), stats.CPUTime)
	assert.Equal(t, uint(4), stats.CoreCount)
	assert.False(t, stats.Timestamp.Before(before))
}

func TestCPUStatsZeroCores(t *testing.T) {
	fixture := plainFixture()
	fixture.Info = types.DomainInfo{}

	inspector := controller.NewInspector(hypervisorfake.New(fixture))

	stats, err := inspector.CPUStats(plainUUID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.CPUTime)
}

func TestInterfaceIO(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(novaFixture()))

	io, err := inspector.InterfaceIO(novaUUID, "tap1")
	require.NoError(t, err)
	assert.Equal(t, types.InterfaceIO{Read: 3333, Write: 4444}, io)
}

func TestInterfaceIODegradesOnInactiveDomain(t *testing.T) {
	fixture := plainFixture()
	fixture.NICErr = errors.New("domain is not running")

	inspector := controller.NewInspector(hypervisorfake.New(fixture))

	io, err := inspector.InterfaceIO(plainUUID, "vnet3")
	require.NoError(t, err)
	assert.Equal(t, types.InterfaceIO{}, io)
}

func TestInterfaceIOEscalatesOnActiveDomain(t *testing.T) {
	fixture := novaFixture()
	fixture.NICErr = errors.New("cannot open /proc/net/dev")

	inspector := controller.NewInspector(hypervisorfake.New(fixture))

	_, err := inspector.InterfaceIO(novaUUID, "tap0")
	require.ErrorIs(t, err, controller.ErrInspectDomain)
	assert.ErrorIs(t, err, fixture.NICErr)
}

func TestDiskIO(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(novaFixture()))

	io, err := inspector.DiskIO(novaUUID, "vda")
	require.NoError(t, err)

	assert.Equal(t, types.DiskIO{
		ReadBytes: 10, WriteBytes: 20,
		ReadOps: 1, WriteOps: 2, FlushOps: 3,
		ReadTime: 100, WriteTime: 200, FlushTime: 300,
	}, io)
}

func TestDiskIODegradesOnInactiveDomain(t *testing.T) {
	fixture := plainFixture()
	fixture.DiskErr = errors.New("domain is not running")

	inspector := controller.NewInspector(hypervisorfake.New(fixture))

	io, err := inspector.DiskIO(plainUUID, "vda")
	require.NoError(t, err)
	assert.Equal(t, types.DiskIO{}, io)
}

// ---------------------------------------------------- METADATA ---------------------------------------------------- //

func TestOwnerMetadata(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(novaFixture()))

	owner, err := inspector.OwnerMetadata(novaUUID)
	require.NoError(t, err)

	assert.Equal(t, types.OwnerMetadata{
		UserUUID:    "2af12723-af1d-4b04-b02e-f95b1f244f6c",
		ProjectUUID: "a23f0cf4-1bc5-42c9-aed9-e54a4a8ec2c7",
		UserName:    "alice",
		ProjectName: "research",
	}, owner)
}

func TestOwnerMetadataNonOpenstackDomain(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(plainFixture()))

	owner, err := inspector.OwnerMetadata(plainUUID)
	require.NoError(t, err)
	assert.Equal(t, types.NonOpenstackOwner(), owner)
	assert.Equal(t, types.NonOpenstackInstance, owner.UserUUID)
}

func TestMiscAttributes(t *testing.T) {
	fake := hypervisorfake.New(novaFixture())
	inspector := controller.NewInspector(fake)

	attrs, err := inspector.MiscAttributes(novaUUID)
	require.NoError(t, err)

	assert.Equal(t, "instance-00000042", attrs.Name)
	assert.Equal(t, fake.HostnameValue, attrs.VirtHost)
	assert.True(t, attrs.Active)
	assert.Equal(t, "alice", attrs.UserName)
}

func TestIsActive(t *testing.T) {
	inspector := controller.NewInspector(hypervisorfake.New(novaFixture(), plainFixture()))

	active, err := inspector.IsActive(novaUUID)
	require.NoError(t, err)
	assert.True(t, active)

	active, err = inspector.IsActive(plainUUID)
	require.NoError(t, err)
	assert.False(t, active)
}

// ---------------------------------------------------- HANDLES ----------------------------------------------------- //

func TestHandlesAreFreedPerOperation(t *testing.T) {
	fake := hypervisorfake.New(novaFixture())
	inspector := controller.NewInspector(fake)

	_, err := inspector.MemoryStats(novaUUID)
	require.NoError(t, err)

	_, err = inspector.CPUStats(novaUUID)
	require.NoError(t, err)

	_, err = inspector.DiscoverDisks(novaUUID)
	require.NoError(t, err)

	assert.Equal(t, fake.LookupCount, fake.FreedCount)
	assert.Equal(t, 3, fake.FreedCount)
}
