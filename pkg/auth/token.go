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
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/go-autorest/autorest"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

const (
	// BatchScope is the Entra ID scope of the Batch data plane. The double slash is intentional.
	BatchScope = "https://batch.core.windows.net//.default"

	// tokens are refreshed this long before they expire
	tokenRefreshSkew = 5 * time.Minute
	cleanupInterval  = 10 * time.Minute
)

// TokenAuthorizer adds an Entra ID bearer token to Batch requests.
type TokenAuthorizer struct {
	credential azcore.TokenCredential
	scope      string
	tokens     *cache.Cache
	now        func() time.Time
}

var _ autorest.Authorizer = (*TokenAuthorizer)(nil)

func NewTokenAuthorizer(credential azcore.TokenCredential, scope string) *TokenAuthorizer {
	return &TokenAuthorizer{
		credential: credential,
		scope:      scope,
		tokens:     cache.New(cache.NoExpiration, cleanupInterval),
		now:        time.Now,
	}
}

func (t *TokenAuthorizer) WithAuthorization() autorest.PrepareDecorator {
	return func(p autorest.Preparer) autorest.Preparer {
		return autorest.PreparerFunc(func(r *http.Request) (*http.Request, error) {
			r, err := p.Prepare(r)
			if err != nil {
				return r, err
			}
			token, err := t.token(r.Context())
			if err != nil {
				return r, errors.Wrap(err, "failed to acquire token")
			}
			return autorest.Prepare(r, autorest.WithBearerAuthorization(token))
		})
	}
}

func (t *TokenAuthorizer) token(ctx context.Context) (string, error) {
	if cached, ok := t.tokens.Get(t.scope); ok {
		return cached.(string), nil
	}

	accessToken, err := t.credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{t.scope}})
	if err != nil {
		return "", err
	}

	if ttl := accessToken.ExpiresOn.Sub(t.now()) - tokenRefreshSkew; ttl > 0 {
		t.tokens.Set(t.scope, accessToken.Token, ttl)
	}
	return accessToken.Token, nil
}
