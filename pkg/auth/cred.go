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
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"
	"github.com/pkg/errors"
)

const (
	federatedTokenFileKey = "AZURE_FEDERATED_TOKEN_FILE"
	authorityHostKey      = "AZURE_AUTHORITY_HOST"

	assertionRefreshInterval = 5 * time.Minute
)

// ClientAssertionCredential exchanges a federated token read from disk for an Entra ID token.
type ClientAssertionCredential struct {
	mu                 sync.Mutex
	assertion, file    string
	lastRead           time.Time
	now                func() time.Time
	ConfidentialClient confidential.Client
}

// UseFederatedCredential reports whether a federated token was mounted for the function app.
func UseFederatedCredential() bool {
	return os.Getenv(federatedTokenFileKey) != ""
}

// NewCredential provides a token credential for workload identity federation. The identity
// is cfg.ClientID in tenant cfg.TenantID.
func NewCredential(cfg *Config) (azcore.TokenCredential, error) {
	if cfg == nil {
		return nil, fmt.Errorf("failed to create credential, nil config provided")
	}
	tokenFilePath := os.Getenv(federatedTokenFileKey)
	if tokenFilePath == "" {
		return nil, fmt.Errorf("required environment variable is not set, %s", federatedTokenFileKey)
	}
	authority := os.Getenv(authorityHostKey)
	if authority == "" {
		return nil, fmt.Errorf("required environment variable is not set, %s", authorityHostKey)
	}
	if cfg.TenantID == "" || cfg.ClientID == "" {
		return nil, fmt.Errorf("%s and %s are required for federated credentials", tenantIDKey, clientIDKey)
	}

	c := &ClientAssertionCredential{file: tokenFilePath, now: time.Now}
	cred := confidential.NewCredFromAssertionCallback(
		func(context.Context, confidential.AssertionRequestOptions) (string, error) {
			return c.readJWTFromFS()
		},
	)
	client, err := confidential.New(fmt.Sprintf("%s%s/oauth2/token", authority, cfg.TenantID), cfg.ClientID, cred)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create confidential client app")
	}
	c.ConfidentialClient = client
	return c, nil
}

// GetToken implements the TokenCredential interface
func (c *ClientAssertionCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	token, err := c.ConfidentialClient.AcquireTokenByCredential(ctx, opts.Scopes)
	if err != nil {
		return azcore.AccessToken{}, err
	}
	return azcore.AccessToken{
		Token:     token.AccessToken,
		ExpiresOn: token.ExpiresOn,
	}, nil
}

// readJWTFromFS returns the federated token, re-reading the file at most every five minutes
// since the platform rotates it in place.
func (c *ClientAssertionCredential) readJWTFromFS() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now := c.now(); c.lastRead.Add(assertionRefreshInterval).Before(now) {
		content, err := os.ReadFile(c.file)
		if err != nil {
			return "", err
		}
		c.assertion = string(content)
		c.lastRead = now
	}
	return c.assertion, nil
}
