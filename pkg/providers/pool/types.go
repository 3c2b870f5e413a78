/*
       Copyright (c) Microsoft Corporation.
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

package pool

import (
	"github.com/samber/lo"

	"github.com/azure/batch-pool-functions/pkg/apis/settings"
)

// Privilege is the elevation level of the start task auto-user.
type Privilege string

const (
	PrivilegeUser  Privilege = settings.PrivilegeUser
	PrivilegeAdmin Privilege = settings.PrivilegeAdmin
)

// ImageReference points at a marketplace VM image.
type ImageReference struct {
	Publisher string
	Offer     string
	SKU       string
	Version   string
}

// Specification describes the pool sent to Batch. It is rebuilt on every invocation.
type Specification struct {
	ID                   string
	Image                ImageReference
	NodeAgentSKUID       string
	VMSize               string
	TargetDedicatedNodes int32
	StartCommand         string
	StartTaskPrivilege   Privilege
	WaitForSuccess       bool
}

// NewSpecification builds the pool specification from validated settings.
func NewSpecification(s *settings.Settings) Specification {
	return Specification{
		ID: s.PoolID,
		Image: ImageReference{
			Publisher: s.ImagePublisher,
			Offer:     s.ImageOffer,
			SKU:       s.ImageSKU,
			Version:   s.ImageVersion,
		},
		NodeAgentSKUID:       s.NodeAgentSKUID,
		VMSize:               s.VMSize,
		TargetDedicatedNodes: lo.FromPtr(s.TargetNodeCount),
		StartCommand:         s.StartCommand,
		StartTaskPrivilege:   Privilege(s.StartTaskPrivilege),
		WaitForSuccess:       true,
	}
}
