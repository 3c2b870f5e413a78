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
	"context"

	"github.com/Azure/azure-sdk-for-go/services/batch/2020-09-01.12.0/batch"
	"github.com/Azure/go-autorest/autorest/to"
	"knative.dev/pkg/logging"

	"github.com/azure/batch-pool-functions/pkg/utils"
)

const (
	OpAdd    = "add"
	OpDelete = "delete"
)

type Provider struct {
	azClient *AZClient
}

func NewProvider(azClient *AZClient) *Provider {
	return &Provider{
		azClient: azClient,
	}
}

// Create submits a pool creation request. It returns once Batch has accepted the request,
// the nodes are provisioned asynchronously.
func (p *Provider) Create(ctx context.Context, spec Specification) error {
	logging.FromContext(ctx).Infof("Creating pool [%s] with %d x %s", spec.ID, spec.TargetDedicatedNodes, spec.VMSize)

	resp, err := p.azClient.poolsClient.Add(ctx, newPoolAddParameter(spec))
	if err != nil {
		poolErr := utils.NewProviderError(OpAdd, spec.ID, resp.Response, err)
		logging.FromContext(ctx).Errorf("Creating pool %q failed: %v", spec.ID, poolErr)
		return poolErr
	}
	logging.FromContext(ctx).Debugf("Created pool %s", spec.ID)
	return nil
}

// Delete submits a pool deletion request. Batch removes the nodes asynchronously.
func (p *Provider) Delete(ctx context.Context, poolID string) error {
	logging.FromContext(ctx).Infof("Deleting pool [%s]", poolID)

	resp, err := p.azClient.poolsClient.Delete(ctx, poolID)
	if err != nil {
		poolErr := utils.NewProviderError(OpDelete, poolID, resp.Response, err)
		logging.FromContext(ctx).Errorf("Deleting pool %q failed: %v", poolID, poolErr)
		return poolErr
	}
	logging.FromContext(ctx).Debugf("Deleted pool %s", poolID)
	return nil
}

func newPoolAddParameter(spec Specification) batch.PoolAddParameter {
	elevation := batch.Admin
	if spec.StartTaskPrivilege == PrivilegeUser {
		elevation = batch.NonAdmin
	}

	return batch.PoolAddParameter{
		ID:     to.StringPtr(spec.ID),
		VMSize: to.StringPtr(spec.VMSize),
		VirtualMachineConfiguration: &batch.VirtualMachineConfiguration{
			ImageReference: &batch.ImageReference{
				Publisher: to.StringPtr(spec.Image.Publisher),
				Offer:     to.StringPtr(spec.Image.Offer),
				Sku:       to.StringPtr(spec.Image.SKU),
				Version:   to.StringPtr(spec.Image.Version),
			},
			NodeAgentSKUID: to.StringPtr(spec.NodeAgentSKUID),
		},
		TargetDedicatedNodes: to.Int32Ptr(spec.TargetDedicatedNodes),
		// runs on every node as it joins the pool and after each restart
		StartTask: &batch.StartTask{
			CommandLine:    to.StringPtr(spec.StartCommand),
			WaitForSuccess: to.BoolPtr(spec.WaitForSuccess),
			UserIdentity: &batch.UserIdentity{
				AutoUser: &batch.AutoUserSpecification{
					Scope:          batch.Pool,
					ElevationLevel: elevation,
				},
			},
		},
	}
}
