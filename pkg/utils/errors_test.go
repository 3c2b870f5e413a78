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

package utils

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Azure/go-autorest/autorest"
	"github.com/stretchr/testify/assert"
)

func batchResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestNewProviderError(t *testing.T) {
	testCases := []struct {
		name         string
		resp         *http.Response
		err          error
		expectedKind ErrorKind
		expectedCode string
		expectedHTTP int
	}{
		{
			name:         "pool already exists",
			resp:         batchResponse(http.StatusConflict, `{"code":"PoolExists","message":{"lang":"en-US","value":"The specified pool already exists."}}`),
			err:          errors.New("Failure responding to request"),
			expectedKind: ErrorKindConflict,
			expectedCode: "PoolExists",
			expectedHTTP: http.StatusConflict,
		},
		{
			name:         "pool not found",
			resp:         batchResponse(http.StatusNotFound, `{"code":"PoolNotFound","message":{"lang":"en-US","value":"The specified pool does not exist."}}`),
			err:          errors.New("Failure responding to request"),
			expectedKind: ErrorKindNotFound,
			expectedCode: "PoolNotFound",
			expectedHTTP: http.StatusNotFound,
		},
		{
			name:         "quota exceeded keeps the provider status",
			resp:         batchResponse(http.StatusForbidden, `{"code":"AccountCoreQuotaReached","message":{"lang":"en-US","value":"quota"}}`),
			err:          errors.New("Failure responding to request"),
			expectedKind: ErrorKindProvider,
			expectedCode: "AccountCoreQuotaReached",
			expectedHTTP: http.StatusForbidden,
		},
		{
			name:         "server error maps to bad gateway",
			resp:         batchResponse(http.StatusInternalServerError, `not json`),
			err:          errors.New("Failure responding to request"),
			expectedKind: ErrorKindProvider,
			expectedHTTP: http.StatusBadGateway,
		},
		{
			name:         "transport failure without a response",
			err:          errors.New("dial tcp: connection refused"),
			expectedKind: ErrorKindProvider,
			expectedHTTP: http.StatusBadGateway,
		},
		{
			name:         "status taken from a detailed error",
			err:          autorest.DetailedError{StatusCode: http.StatusConflict, Message: "conflict"},
			expectedKind: ErrorKindConflict,
			expectedHTTP: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pe := NewProviderError("add", "pool-1", tc.resp, tc.err)
			assert.Equal(t, tc.expectedKind, pe.Kind)
			assert.Equal(t, tc.expectedCode, pe.Code)
			assert.Equal(t, "pool-1", pe.PoolID)
			assert.Equal(t, tc.expectedHTTP, HTTPStatus(pe))
			assert.Equal(t, tc.err, errors.Unwrap(pe))
		})
	}
}

func TestNewProviderError_BodyStaysReadable(t *testing.T) {
	body := `{"code":"PoolExists","message":{"lang":"en-US","value":"exists"}}`
	resp := batchResponse(http.StatusConflict, body)

	pe := NewProviderError("add", "pool-1", resp, errors.New("boom"))
	assert.Equal(t, "exists", pe.Message)

	rest, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, body, string(rest))
}

func TestErrorKinds(t *testing.T) {
	cfgErr := NewConfigurationError(errors.New("_POOL_ID missing"))
	assert.True(t, IsConfigurationError(cfgErr))
	assert.False(t, IsConflictError(cfgErr))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(cfgErr))
	assert.Contains(t, cfgErr.Error(), "invalid configuration")

	wrapped := fmt.Errorf("creating pool: %w", NewProviderError("add", "p", batchResponse(http.StatusConflict, ""), errors.New("x")))
	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))

	assert.False(t, IsConflictError(nil))
	assert.Equal(t, ErrorKindProvider, KindOf(errors.New("plain")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestValidatePoolID(t *testing.T) {
	assert.NoError(t, ValidatePoolID(""))
	assert.NoError(t, ValidatePoolID("pool_01-a"))
	assert.Error(t, ValidatePoolID("pool 01"))
	assert.Error(t, ValidatePoolID(strings.Repeat("a", 65)))
}
