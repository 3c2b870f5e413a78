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
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/Azure/go-autorest/autorest"
)

const (
	AuthModeSharedKey = "sharedkey"
	AuthModeAAD       = "aad"

	batchAccountNameKey = "_BATCH_ACCOUNT_NAME"
	batchAccountKeyKey  = "_BATCH_ACCOUNT_KEY"
	batchAccountURLKey  = "_BATCH_ACCOUNT_URL"
	batchAuthModeKey    = "_BATCH_AUTH_MODE"
	tenantIDKey         = "AZURE_TENANT_ID"
	clientIDKey         = "AZURE_CLIENT_ID"
)

// ClientConfig contains all essential information to create a Batch client.
type ClientConfig struct {
	AccountName string
	AccountURL  string
	Authorizer  autorest.Authorizer
	UserAgent   string
}

// Config holds the Batch account configuration read from the function app settings.
type Config struct {
	AccountName string `json:"accountName" yaml:"accountName"`
	AccountKey  string `json:"-" yaml:"-"`
	AccountURL  string `json:"accountURL" yaml:"accountURL"`
	// AuthMode selects shared key signing or Entra ID bearer tokens. Defaults to shared key.
	AuthMode string `json:"authMode,omitempty" yaml:"authMode,omitempty"`
	// TenantID and ClientID identify the workload identity used with federated tokens.
	TenantID string `json:"tenantId,omitempty" yaml:"tenantId,omitempty"`
	ClientID string `json:"clientId,omitempty" yaml:"clientId,omitempty"`
}

func (cfg *Config) BaseVars() {
	cfg.AccountName = os.Getenv(batchAccountNameKey)
	cfg.AccountKey = os.Getenv(batchAccountKeyKey)
	cfg.AccountURL = os.Getenv(batchAccountURLKey)
	cfg.AuthMode = os.Getenv(batchAuthModeKey)
	cfg.TenantID = os.Getenv(tenantIDKey)
	cfg.ClientID = os.Getenv(clientIDKey)
}

// BuildBatchConfig returns a Config object for the Batch clients
func BuildBatchConfig() (*Config, error) {
	cfg := &Config{}
	cfg.BaseVars()
	cfg.TrimSpace()
	if cfg.AuthMode == "" {
		cfg.AuthMode = AuthModeSharedKey
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) GetBatchClientConfig(authorizer autorest.Authorizer, userAgent string) *ClientConfig {
	return &ClientConfig{
		AccountName: cfg.AccountName,
		AccountURL:  cfg.AccountURL,
		Authorizer:  authorizer,
		UserAgent:   userAgent,
	}
}

// TrimSpace removes all leading and trailing white spaces.
func (cfg *Config) TrimSpace() {
	cfg.AccountName = strings.TrimSpace(cfg.AccountName)
	cfg.AccountKey = strings.TrimSpace(cfg.AccountKey)
	cfg.AccountURL = strings.TrimSuffix(strings.TrimSpace(cfg.AccountURL), "/")
	cfg.AuthMode = strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	cfg.TenantID = strings.TrimSpace(cfg.TenantID)
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
}

// nolint: gocyclo
func (cfg *Config) validate() error {
	if cfg.AccountName == "" {
		return fmt.Errorf("batch account name not set, %s is required", batchAccountNameKey)
	}
	if cfg.AccountURL == "" {
		return fmt.Errorf("batch account URL not set, %s is required", batchAccountURLKey)
	}
	u, err := url.Parse(cfg.AccountURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("batch account URL %q is not an absolute URL", cfg.AccountURL)
	}

	switch cfg.AuthMode {
	case AuthModeSharedKey:
		if cfg.AccountKey == "" {
			return fmt.Errorf("batch account key not set, %s is required", batchAccountKeyKey)
		}
		if _, err := base64.StdEncoding.DecodeString(cfg.AccountKey); err != nil {
			return fmt.Errorf("batch account key is not valid base64: %w", err)
		}
	case AuthModeAAD:
	default:
		return fmt.Errorf("unsupported %s %q, must be %q or %q", batchAuthModeKey, cfg.AuthMode, AuthModeSharedKey, AuthModeAAD)
	}
	return nil
}
