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
	"encoding/xml"
	"errors"
	"fmt"

	"libvirt.org/go/libvirtxml"

	"github.com/alexandremahdhaoui/virtzab/internal/types"
)

var errParseDescriptor = errors.New("parsing domain descriptor")

// descriptor is an immutable parse of one domain descriptor document. All
// field groups are read through named accessors so that schema drift stays
// localized here.
type descriptor struct {
	domain libvirtxml.Domain
	nova   *novaInstance
}

// parseDescriptor parses the descriptor document, including the Nova
// platform-extension block when present. libvirtxml exposes vendor metadata
// as an opaque inner-XML string, so that block is decoded separately.
func parseDescriptor(xmlDesc string) (*descriptor, error) {
	desc := &descriptor{}

	if err := desc.domain.Unmarshal(xmlDesc); err != nil {
		return nil, errors.Join(err, errParseDescriptor)
	}

	if desc.domain.Metadata != nil {
		meta := novaMetadata{}

		wrapped := fmt.Sprintf("<metadata>%s</metadata>", desc.domain.Metadata.XML)
		if err := xml.Unmarshal([]byte(wrapped), &meta); err != nil {
			return nil, errors.Join(err, errParseDescriptor)
		}

		desc.nova = meta.Instance
	}

	return desc, nil
}

// InterfaceNames returns the target device names of the domain's network
// interfaces. Interfaces without a target element are not yet plugged and
// are skipped.
func (d *descriptor) InterfaceNames() []string {
	names := []string{}

	if d.domain.Devices == nil {
		return names
	}

	for _, iface := range d.domain.Devices.Interfaces {
		if iface.Target == nil {
			continue
		}

		names = append(names, iface.Target.Dev)
	}

	return names
}

// DiskNames returns the target device names of the domain's disks.
func (d *descriptor) DiskNames() []string {
	names := []string{}

	if d.domain.Devices == nil {
		return names
	}

	for _, disk := range d.domain.Devices.Disks {
		if disk.Target == nil {
			continue
		}

		names = append(names, disk.Target.Dev)
	}

	return names
}

// Owner returns the OpenStack ownership identity, or the sentinel record
// when the descriptor carries no Nova owner block. It never returns a
// partial record.
func (d *descriptor) Owner() types.OwnerMetadata {
	if d.nova == nil || d.nova.Owner == nil {
		return types.NonOpenstackOwner()
	}

	return types.OwnerMetadata{
		UserUUID:    d.nova.Owner.User.UUID,
		ProjectUUID: d.nova.Owner.Project.UUID,
		UserName:    d.nova.Owner.User.Name,
		ProjectName: d.nova.Owner.Project.Name,
	}
}

// --------------------------------------------- NOVA METADATA ------------------------------------------------------ //

// novaMetadata matches the namespaced instance block Nova embeds under the
// descriptor's metadata element.
type novaMetadata struct {
	Instance *novaInstance `xml:"http://openstack.org/xmlns/libvirt/nova/1.0 instance"`
}

type novaInstance struct {
	Owner *novaOwner `xml:"owner"`
}

type novaOwner struct {
	User    novaIdentity `xml:"user"`
	Project novaIdentity `xml:"project"`
}

type novaIdentity struct {
	UUID string `xml:"uuid,attr"`
	Name string `xml:",chardata"`
}
