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
	"github.com/Azure/go-autorest/autorest"
	"k8s.io/klog/v2"

	"github.com/azure/batch-pool-functions/pkg/auth"
)

const UserAgent = "batch-pool-functions"

// PoolsAPI is the subset of the Batch pool operations used by the functions.
type PoolsAPI interface {
	Add(ctx context.Context, pool batch.PoolAddParameter) (autorest.Response, error)
	Delete(ctx context.Context, poolID string) (autorest.Response, error)
}

type AZClient struct {
	poolsClient PoolsAPI
}

func NewAZClientFromAPI(poolsClient PoolsAPI) *AZClient {
	return &AZClient{
		poolsClient: poolsClient,
	}
}

func NewAZClient(ctx context.Context, cfg *auth.Config) (*AZClient, error) {
	authorizer, err := auth.NewAuthorizer(ctx, cfg)
	if err != nil {
		return nil, err
	}
	clientConfig := cfg.GetBatchClientConfig(authorizer, UserAgent)

	poolClient := batch.NewPoolClient(clientConfig.AccountURL)
	poolClient.Authorizer = clientConfig.Authorizer
	if err := poolClient.AddToUserAgent(clientConfig.UserAgent); err != nil {
		return nil, err
	}
	klog.V(5).Infof("Created batch pool client for %s", clientConfig.AccountURL)

	return &AZClient{
		poolsClient: &batchPoolsAPI{client: poolClient},
	}, nil
}

// batchPoolsAPI adapts batch.PoolClient, leaving every optional request header to the service defaults.
type batchPoolsAPI struct {
	client batch.PoolClient
}

func (b *batchPoolsAPI) Add(ctx context.Context, pool batch.PoolAddParameter) (autorest.Response, error) {
	return b.client.Add(ctx, pool, nil, nil, nil, nil)
}

func (b *batchPoolsAPI) Delete(ctx context.Context, poolID string) (autorest.Response, error) {
	return b.client.Delete(ctx, poolID, nil, nil, nil, nil, "", "", nil, nil)
}
