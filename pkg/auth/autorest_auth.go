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

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/go-autorest/autorest"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// NewAuthorizer returns the autorest.Authorizer matching the configured auth mode.
func NewAuthorizer(ctx context.Context, config *Config) (autorest.Authorizer, error) {
	if config == nil {
		return nil, fmt.Errorf("failed to create authorizer, nil config provided")
	}

	switch config.AuthMode {
	case AuthModeSharedKey, "":
		authorizer, err := NewSharedKeyAuthorizer(config.AccountName, config.AccountKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create shared key authorizer")
		}
		klog.V(5).Infof("Using shared key authorization for batch account %s", config.AccountName)
		return authorizer, nil
	case AuthModeAAD:
		cred, err := newTokenCredential(config)
		if err != nil {
			return nil, err
		}
		klog.V(5).Infof("Using Entra ID authorization for batch account %s", config.AccountName)
		return NewTokenAuthorizer(cred, BatchScope), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", config.AuthMode)
	}
}

func newTokenCredential(config *Config) (azcore.TokenCredential, error) {
	if UseFederatedCredential() {
		klog.V(5).Infof("Using federated token credential for client %s", config.ClientID)
		cred, err := NewCredential(config)
		if err != nil {
			klog.ErrorS(err, "failed to create federated token credential")
			return nil, errors.Wrap(err, "failed to create federated token credential")
		}
		return cred, nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		klog.ErrorS(err, "failed to create default azure credential")
		return nil, errors.Wrap(err, "failed to create default azure credential")
	}
	return cred, nil
}
