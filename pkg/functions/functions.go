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

package functions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"knative.dev/pkg/logging"

	"github.com/azure/batch-pool-functions/pkg/providers/pool"
	"github.com/azure/batch-pool-functions/pkg/utils"
)

const (
	// function names, they must match the folders holding function.json
	CreateFunctionName = "batch_pool_start"
	DeleteFunctionName = "batch_pool_stop"

	// InvocationIDHeader is set by the Functions host on forwarded requests.
	InvocationIDHeader = "X-Azure-Functions-InvocationId"

	// second precision, as in the function logs
	timestampLayout = "2006-01-02 15:04:05"
)

// PoolManager creates and deletes Batch pools.
type PoolManager interface {
	Create(ctx context.Context, spec pool.Specification) error
	Delete(ctx context.Context, poolID string) error
}

// NewRouter routes the forwarded function requests. Any method is accepted, the HTTP trigger
// binding decides which ones reach the handler.
func NewRouter(ctx context.Context, create, del http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(invocationLogger(ctx))
	router.Handle("/api/"+CreateFunctionName, create).Name(CreateFunctionName)
	router.Handle("/api/"+DeleteFunctionName, del).Name(DeleteFunctionName)
	return router
}

// invocationLogger scopes the base logger to the function and invocation being served.
func invocationLogger(ctx context.Context) mux.MiddlewareFunc {
	base := logging.FromContext(ctx)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			invocationID := r.Header.Get(InvocationIDHeader)
			if invocationID == "" {
				invocationID = uuid.New().String()
			}
			name := ""
			if route := mux.CurrentRoute(r); route != nil {
				name = route.GetName()
			}
			logger := base.With("function", name, "invocationId", invocationID)
			next.ServeHTTP(w, r.WithContext(logging.WithLogger(r.Context(), logger)))
		})
	}
}

// ConfigurationErrorHandler answers every invocation of a function whose configuration is invalid.
type ConfigurationErrorHandler struct {
	err error
}

func NewConfigurationErrorHandler(err error) *ConfigurationErrorHandler {
	if !utils.IsConfigurationError(err) {
		err = utils.NewConfigurationError(err)
	}
	return &ConfigurationErrorHandler{err: err}
}

func (h *ConfigurationErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logging.FromContext(r.Context()).Errorf("Refusing invocation, %v", h.err)
	writeError(w, h.err)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    utils.ErrorKind `json:"kind"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message"`
	PoolID  string          `json:"poolId,omitempty"`
}

func writePoolID(w http.ResponseWriter, poolID string) {
	writeJSON(w, http.StatusOK, poolID)
}

func writeError(w http.ResponseWriter, err error) {
	detail := errorDetail{Kind: utils.KindOf(err), Message: err.Error()}
	var pe *utils.PoolError
	if errors.As(err, &pe) {
		detail.Code = pe.Code
		detail.PoolID = pe.PoolID
	}
	writeJSON(w, utils.HTTPStatus(err), errorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
