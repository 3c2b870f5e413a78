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

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Azure/go-autorest/autorest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const batchContentType = "application/json; odata=minimalmetadata; charset=utf-8"

func expectedSignature(t *testing.T, key, message string) string {
	decoded, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	h := hmac.New(sha256.New, decoded)
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func TestNewSharedKeyAuthorizer(t *testing.T) {
	_, err := NewSharedKeyAuthorizer("", testAccountKey)
	assert.Error(t, err)

	_, err = NewSharedKeyAuthorizer("mybatch", "%%%")
	assert.Error(t, err)

	a, err := NewSharedKeyAuthorizer("mybatch", testAccountKey)
	require.NoError(t, err)
	assert.Equal(t, "mybatch", a.accountName)
}

func TestSharedKeyAuthorizer_AddPool(t *testing.T) {
	a, err := NewSharedKeyAuthorizer("mybatch", testAccountKey)
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2006, time.January, 2, 15, 4, 5, 0, time.UTC) }

	body := `{"id":"pool1"}`
	req, err := http.NewRequest(http.MethodPost, "https://mybatch.eastus.batch.azure.com/pools?api-version=2020-09-01.12.0&timeout=30", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", batchContentType)

	req, err = autorest.Prepare(req, a.WithAuthorization())
	require.NoError(t, err)

	expected := "POST\n" +
		"\n" + // Content-Encoding
		"\n" + // Content-Language
		"14\n" +
		"\n" + // Content-MD5
		batchContentType + "\n" +
		"\n\n\n\n\n\n" +
		"ocp-date:Mon, 02 Jan 2006 15:04:05 GMT\n" +
		"/mybatch/pools\n" +
		"api-version:2020-09-01.12.0\n" +
		"timeout:30"

	assert.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", req.Header.Get("ocp-date"))
	assert.Equal(t, expected, stringToSign("mybatch", req))
	assert.Equal(t, "SharedKey mybatch:"+expectedSignature(t, testAccountKey, expected), req.Header.Get("Authorization"))
}

func TestSharedKeyAuthorizer_DeletePool(t *testing.T) {
	a, err := NewSharedKeyAuthorizer("mybatch", testAccountKey)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodDelete, "https://mybatch.eastus.batch.azure.com/pools/pool1?api-version=2020-09-01.12.0", nil)
	require.NoError(t, err)
	req.Header.Set("ocp-date", "Tue, 03 Jan 2006 15:04:05 GMT")
	req.Header.Set("client-request-id", "ignored")
	req.Header.Set("ocp-custom", "value")

	req, err = autorest.Prepare(req, a.WithAuthorization())
	require.NoError(t, err)

	expected := "DELETE\n" +
		"\n\n" +
		"0\n" +
		"\n\n\n\n\n\n\n\n" +
		"ocp-custom:value\n" +
		"ocp-date:Tue, 03 Jan 2006 15:04:05 GMT\n" +
		"/mybatch/pools/pool1\n" +
		"api-version:2020-09-01.12.0"

	assert.Equal(t, "Tue, 03 Jan 2006 15:04:05 GMT", req.Header.Get("ocp-date"), "an existing ocp-date must be kept")
	assert.Equal(t, expected, stringToSign("mybatch", req))
	assert.Equal(t, "SharedKey mybatch:"+expectedSignature(t, testAccountKey, expected), req.Header.Get("Authorization"))
}

func TestSharedKeyAuthorizer_GetHasEmptyContentLength(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "https://mybatch.eastus.batch.azure.com/pools", nil)
	require.NoError(t, err)

	lines := strings.Split(stringToSign("mybatch", req), "\n")
	require.Greater(t, len(lines), 3)
	assert.Equal(t, "GET", lines[0])
	assert.Equal(t, "", lines[3])
	assert.Equal(t, "/mybatch/pools", lines[len(lines)-1])
}
