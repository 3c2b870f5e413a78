/*
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

package fake

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/services/batch/2020-09-01.12.0/batch"
	"github.com/Azure/go-autorest/autorest"
	"github.com/samber/lo"

	"github.com/azure/batch-pool-functions/pkg/providers/pool"
)

// assert that the fake implements the interface
var _ pool.PoolsAPI = (*PoolsAPI)(nil)

// PoolsAPI is an in-memory Batch account. Adding an existing pool answers 409 PoolExists and
// deleting an unknown pool answers 404 PoolNotFound, like the real service.
type PoolsAPI struct {
	mu          sync.Mutex
	pools       map[string]batch.PoolAddParameter
	AddCalls    []batch.PoolAddParameter
	DeleteCalls []string
	// AddError, when set, is returned by every Add call without touching the pools.
	AddError error
}

func NewPoolsAPI() *PoolsAPI {
	return &PoolsAPI{pools: map[string]batch.PoolAddParameter{}}
}

func (f *PoolsAPI) Add(_ context.Context, p batch.PoolAddParameter) (autorest.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AddCalls = append(f.AddCalls, p)
	if f.AddError != nil {
		return autorest.Response{}, f.AddError
	}

	id := lo.FromPtr(p.ID)
	if _, ok := f.pools[id]; ok {
		return BatchErrorResponse("Add", http.StatusConflict, "PoolExists", "The specified pool already exists.")
	}
	f.pools[id] = p
	return autorest.Response{Response: &http.Response{StatusCode: http.StatusCreated, Body: http.NoBody}}, nil
}

func (f *PoolsAPI) Delete(_ context.Context, poolID string) (autorest.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls = append(f.DeleteCalls, poolID)

	if _, ok := f.pools[poolID]; !ok {
		return BatchErrorResponse("Delete", http.StatusNotFound, "PoolNotFound", "The specified pool does not exist.")
	}
	delete(f.pools, poolID)
	return autorest.Response{Response: &http.Response{StatusCode: http.StatusAccepted, Body: http.NoBody}}, nil
}

// Pool returns the stored pool with the given id.
func (f *PoolsAPI) Pool(id string) (batch.PoolAddParameter, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pools[id]
	return p, ok
}

// BatchErrorResponse builds the response and error the Batch pool client returns for a failed call.
func BatchErrorResponse(method string, status int, code, message string) (autorest.Response, error) {
	body := fmt.Sprintf(`{"odata.metadata":"https://account.region.batch.azure.com/$metadata#Microsoft.Azure.Batch.Protocol.Entities.Container.errors/@Element","code":%q,"message":{"lang":"en-US","value":%q}}`, code, message)
	resp := &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		Header:     http.Header{"Content-Type": []string{"application/json;odata=minimalmetadata"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
	return autorest.Response{Response: resp}, autorest.NewErrorWithResponse("batch.PoolClient", method, resp, "Failure responding to request")
}
