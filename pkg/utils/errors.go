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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/services/batch/2020-09-01.12.0/batch"
	"github.com/Azure/go-autorest/autorest"
	"github.com/Azure/go-autorest/autorest/azure"
	"github.com/samber/lo"
)

// ErrorKind tells callers what went wrong without inspecting provider details.
type ErrorKind string

const (
	ErrorKindConfiguration ErrorKind = "Configuration"
	ErrorKindConflict      ErrorKind = "Conflict"
	ErrorKindNotFound      ErrorKind = "NotFound"
	ErrorKindProvider      ErrorKind = "Provider"
)

// PoolError is returned by every pool operation.
type PoolError struct {
	Kind   ErrorKind
	Op     string
	PoolID string
	// StatusCode is the status the Batch service answered with, 0 if no response was received.
	StatusCode int
	// Code is the Batch error code, e.g. PoolExists or PoolNotFound.
	Code    string
	Message string
	Err     error
}

func (e *PoolError) Error() string {
	switch {
	case e.Kind == ErrorKindConfiguration:
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	case e.Code != "":
		return fmt.Sprintf("%s pool %q failed with %s (%d): %s", e.Op, e.PoolID, e.Code, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s pool %q failed: %v", e.Op, e.PoolID, e.Err)
	}
}

func (e *PoolError) Unwrap() error {
	return e.Err
}

// NewConfigurationError marks err as a configuration problem detected before any call to Batch.
func NewConfigurationError(err error) *PoolError {
	return &PoolError{Kind: ErrorKindConfiguration, Err: err}
}

// NewProviderError classifies an error returned by the Batch client for op on poolID.
func NewProviderError(op, poolID string, resp *http.Response, err error) *PoolError {
	pe := &PoolError{
		Kind:       ErrorKindProvider,
		Op:         op,
		PoolID:     poolID,
		StatusCode: statusCode(resp, err),
		Err:        err,
	}
	if batchErr := decodeBatchError(resp); batchErr != nil {
		pe.Code = lo.FromPtr(batchErr.Code)
		if batchErr.Message != nil {
			pe.Message = lo.FromPtr(batchErr.Message.Value)
		}
	}
	var reqErr *azure.RequestError
	if pe.Code == "" && errors.As(err, &reqErr) && reqErr.ServiceError != nil {
		pe.Code = reqErr.ServiceError.Code
		pe.Message = reqErr.ServiceError.Message
	}
	if pe.Message == "" && err != nil {
		pe.Message = err.Error()
	}

	switch pe.StatusCode {
	case http.StatusConflict:
		pe.Kind = ErrorKindConflict
	case http.StatusNotFound:
		pe.Kind = ErrorKindNotFound
	}
	return pe
}

// KindOf returns the ErrorKind of err, ErrorKindProvider for errors that are not a PoolError.
func KindOf(err error) ErrorKind {
	var pe *PoolError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ErrorKindProvider
}

func IsConfigurationError(err error) bool {
	return err != nil && KindOf(err) == ErrorKindConfiguration
}

// IsConflictError checks if an error is a Batch conflict such as PoolExists
func IsConflictError(err error) bool {
	return err != nil && KindOf(err) == ErrorKindConflict
}

// IsNotFoundError checks if an error is a Batch "not found" error such as PoolNotFound
func IsNotFoundError(err error) bool {
	return err != nil && KindOf(err) == ErrorKindNotFound
}

// HTTPStatus maps err to the status the function answers with.
func HTTPStatus(err error) int {
	var pe *PoolError
	if !errors.As(err, &pe) {
		return http.StatusInternalServerError
	}
	switch pe.Kind {
	case ErrorKindConfiguration:
		return http.StatusInternalServerError
	case ErrorKindConflict:
		return http.StatusConflict
	case ErrorKindNotFound:
		return http.StatusNotFound
	}
	if pe.StatusCode >= 400 && pe.StatusCode < 500 {
		return pe.StatusCode
	}
	return http.StatusBadGateway
}

func statusCode(resp *http.Response, err error) int {
	if resp != nil && resp.StatusCode != 0 {
		return resp.StatusCode
	}
	var detailed autorest.DetailedError
	if errors.As(err, &detailed) {
		if code, ok := detailed.StatusCode.(int); ok {
			return code
		}
	}
	return 0
}

// decodeBatchError reads the Batch error body, which is left readable by the autorest responders.
func decodeBatchError(resp *http.Response) *batch.Error {
	if resp == nil || resp.Body == nil {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return nil
	}
	batchErr := &batch.Error{}
	if err := json.Unmarshal(body, batchErr); err != nil || batchErr.Code == nil {
		return nil
	}
	return batchErr
}
