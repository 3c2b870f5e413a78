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

package pool_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/services/batch/2020-09-01.12.0/batch"
	"github.com/Azure/go-autorest/autorest"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	logtesting "knative.dev/pkg/logging/testing"

	"github.com/azure/batch-pool-functions/pkg/auth"
	"github.com/azure/batch-pool-functions/pkg/fake"
	"github.com/azure/batch-pool-functions/pkg/providers/pool"
	"github.com/azure/batch-pool-functions/pkg/utils"
)

func testSpec(id string) pool.Specification {
	return pool.Specification{
		ID:                   id,
		Image:                pool.ImageReference{Publisher: "microsoft-dsvm", Offer: "dsvm-win-2019", SKU: "winserver-2019", Version: "latest"},
		NodeAgentSKUID:       "batch.node.windows amd64",
		VMSize:               "STANDARD_D2S_V3",
		TargetDedicatedNodes: 4,
		StartCommand:         "cmd /c echo hello",
		StartTaskPrivilege:   pool.PrivilegeAdmin,
		WaitForSuccess:       true,
	}
}

func TestCreate(t *testing.T) {
	testCases := map[string]struct {
		mockAdd       func(m *fake.MockPoolsAPI)
		expectedKind  utils.ErrorKind
		expectedError bool
	}{
		"successfully create pool": {
			mockAdd: func(m *fake.MockPoolsAPI) {
				m.EXPECT().Add(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p batch.PoolAddParameter) (autorest.Response, error) {
					assert.Equal(t, "pool-1", lo.FromPtr(p.ID))
					assert.Equal(t, "STANDARD_D2S_V3", lo.FromPtr(p.VMSize))
					assert.Equal(t, int32(4), lo.FromPtr(p.TargetDedicatedNodes))
					return autorest.Response{Response: &http.Response{StatusCode: http.StatusCreated}}, nil
				}).Times(1)
			},
		},
		"pool already exists": {
			mockAdd: func(m *fake.MockPoolsAPI) {
				m.EXPECT().Add(gomock.Any(), gomock.Any()).Return(fake.BatchErrorResponse("Add", http.StatusConflict, "PoolExists", "exists")).Times(1)
			},
			expectedError: true,
			expectedKind:  utils.ErrorKindConflict,
		},
		"transport failure": {
			mockAdd: func(m *fake.MockPoolsAPI) {
				m.EXPECT().Add(gomock.Any(), gomock.Any()).Return(autorest.Response{}, errors.New("connection reset")).Times(1)
			},
			expectedError: true,
			expectedKind:  utils.ErrorKindProvider,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockAPI := fake.NewMockPoolsAPI(ctrl)
			tc.mockAdd(mockAPI)
			provider := pool.NewProvider(pool.NewAZClientFromAPI(mockAPI))

			err := provider.Create(logtesting.TestContextWithLogger(t), testSpec("pool-1"))
			if !tc.expectedError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.expectedKind, utils.KindOf(err))
		})
	}
}

func TestDelete(t *testing.T) {
	testCases := map[string]struct {
		mockDelete    func(m *fake.MockPoolsAPI)
		expectedKind  utils.ErrorKind
		expectedError bool
	}{
		"successfully delete pool": {
			mockDelete: func(m *fake.MockPoolsAPI) {
				m.EXPECT().Delete(gomock.Any(), "pool-1").Return(autorest.Response{Response: &http.Response{StatusCode: http.StatusAccepted}}, nil).Times(1)
			},
		},
		"pool not found": {
			mockDelete: func(m *fake.MockPoolsAPI) {
				m.EXPECT().Delete(gomock.Any(), "pool-1").Return(fake.BatchErrorResponse("Delete", http.StatusNotFound, "PoolNotFound", "missing")).Times(1)
			},
			expectedError: true,
			expectedKind:  utils.ErrorKindNotFound,
		},
		"pool being deleted": {
			mockDelete: func(m *fake.MockPoolsAPI) {
				m.EXPECT().Delete(gomock.Any(), "pool-1").Return(fake.BatchErrorResponse("Delete", http.StatusConflict, "PoolBeingDeleted", "busy")).Times(1)
			},
			expectedError: true,
			expectedKind:  utils.ErrorKindConflict,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockAPI := fake.NewMockPoolsAPI(ctrl)
			tc.mockDelete(mockAPI)
			provider := pool.NewProvider(pool.NewAZClientFromAPI(mockAPI))

			err := provider.Delete(logtesting.TestContextWithLogger(t), "pool-1")
			if !tc.expectedError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.expectedKind, utils.KindOf(err))
		})
	}
}

func TestCreateTwiceConflicts(t *testing.T) {
	api := fake.NewPoolsAPI()
	provider := pool.NewProvider(pool.NewAZClientFromAPI(api))
	ctx := logtesting.TestContextWithLogger(t)

	require.NoError(t, provider.Create(ctx, testSpec("pool-1")))
	err := provider.Create(ctx, testSpec("pool-1"))
	require.Error(t, err)
	assert.True(t, utils.IsConflictError(err))

	var poolErr *utils.PoolError
	require.ErrorAs(t, err, &poolErr)
	assert.Equal(t, "PoolExists", poolErr.Code)
	assert.Len(t, api.AddCalls, 2)
}

func TestNewAZClient(t *testing.T) {
	client, err := pool.NewAZClient(context.Background(), &auth.Config{
		AccountName: "mybatch",
		AccountKey:  "c2VjcmV0LWJhdGNoLWtleQ==",
		AccountURL:  "https://mybatch.eastus.batch.azure.com",
		AuthMode:    auth.AuthModeSharedKey,
	})
	assert.NoError(t, err)
	assert.NotNil(t, client)

	_, err = pool.NewAZClient(context.Background(), &auth.Config{AccountName: "mybatch", AccountKey: "%%%", AuthMode: auth.AuthModeSharedKey})
	assert.Error(t, err)
}
