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
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Azure/go-autorest/autorest"
)

const (
	headerOcpDate       = "ocp-date"
	headerAuthorization = "Authorization"
	ocpHeaderPrefix     = "ocp-"
)

// signedHeaders lists the standard headers in the order the Batch service canonicalizes them.
var signedHeaders = []string{
	"Content-Encoding",
	"Content-Language",
	"Content-Length",
	"Content-MD5",
	"Content-Type",
	"Date",
	"If-Modified-Since",
	"If-Match",
	"If-None-Match",
	"If-Unmodified-Since",
	"Range",
}

// SharedKeyAuthorizer signs Batch data plane requests with the account key.
type SharedKeyAuthorizer struct {
	accountName string
	accountKey  []byte
	now         func() time.Time
}

var _ autorest.Authorizer = (*SharedKeyAuthorizer)(nil)

// NewSharedKeyAuthorizer creates a SharedKeyAuthorizer from a base64 encoded account key.
func NewSharedKeyAuthorizer(accountName, accountKey string) (*SharedKeyAuthorizer, error) {
	if accountName == "" {
		return nil, fmt.Errorf("account name must not be empty")
	}
	key, err := base64.StdEncoding.DecodeString(accountKey)
	if err != nil {
		return nil, fmt.Errorf("decoding account key: %w", err)
	}
	return &SharedKeyAuthorizer{
		accountName: accountName,
		accountKey:  key,
		now:         time.Now,
	}, nil
}

// WithAuthorization returns a PrepareDecorator that adds the SharedKey Authorization header
// after every other preparer has run.
func (s *SharedKeyAuthorizer) WithAuthorization() autorest.PrepareDecorator {
	return func(p autorest.Preparer) autorest.Preparer {
		return autorest.PreparerFunc(func(r *http.Request) (*http.Request, error) {
			r, err := p.Prepare(r)
			if err != nil {
				return r, err
			}
			if r.Header.Get(headerOcpDate) == "" {
				r.Header.Set(headerOcpDate, s.now().UTC().Format(http.TimeFormat))
			}
			r.Header.Set(headerAuthorization, fmt.Sprintf("SharedKey %s:%s", s.accountName, s.sign(stringToSign(s.accountName, r))))
			return r, nil
		})
	}
}

func (s *SharedKeyAuthorizer) sign(message string) string {
	h := hmac.New(sha256.New, s.accountKey)
	h.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func stringToSign(accountName string, r *http.Request) string {
	var b strings.Builder
	b.WriteString(r.Method)
	b.WriteString("\n")

	for _, name := range signedHeaders {
		b.WriteString(headerValue(r, name))
		b.WriteString("\n")
	}

	var ocpHeaders []string
	for name, values := range r.Header {
		lower := strings.ToLower(name)
		if !strings.HasPrefix(lower, ocpHeaderPrefix) || len(values) == 0 || values[0] == "" {
			continue
		}
		ocpHeaders = append(ocpHeaders, lower+":"+values[0])
	}
	sort.Strings(ocpHeaders)
	for _, h := range ocpHeaders {
		b.WriteString(h)
		b.WriteString("\n")
	}

	b.WriteString("/")
	b.WriteString(accountName)
	b.WriteString(r.URL.EscapedPath())

	query := r.URL.Query()
	names := make([]string, 0, len(query))
	for name := range query {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := query.Get(name)
		if value == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(strings.ToLower(name))
		b.WriteString(":")
		b.WriteString(value)
	}
	return b.String()
}

func headerValue(r *http.Request, name string) string {
	if name != "Content-Length" {
		return r.Header.Get(name)
	}
	if v := r.Header.Get(name); v != "" {
		return v
	}
	if r.ContentLength > 0 {
		return strconv.FormatInt(r.ContentLength, 10)
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return "0"
	}
	return ""
}
