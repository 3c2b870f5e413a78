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

package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/azure/batch-pool-functions/pkg/utils"
)

const (
	PrivilegeUser  = "user"
	PrivilegeAdmin = "admin"
)

var defaultSettings = Settings{
	ImagePublisher:     "microsoft-dsvm",
	ImageOffer:         "dsvm-win-2019",
	ImageSKU:           "winserver-2019",
	ImageVersion:       "latest",
	NodeAgentSKUID:     "batch.node.windows amd64",
	StartCommand:       `cmd /c "pip install azure-storage-blob pandas"`,
	StartTaskPrivilege: PrivilegeAdmin,
}

// Settings are the pool parameters shared by both functions. PoolID, VMSize and
// TargetNodeCount have no defaults and must be provided by the function app.
type Settings struct {
	PoolID string `envconfig:"_POOL_ID" validate:"required"`
	VMSize string `envconfig:"_POOL_VM_SIZE" validate:"required"`
	// NodeCount is the raw _POOL_NODE_COUNT value. It is only parsed when validating for create,
	// so a bad count never disables deletion.
	NodeCount       string `envconfig:"_POOL_NODE_COUNT"`
	TargetNodeCount *int32 `ignored:"true" validate:"required,gte=0"`

	ImagePublisher     string `envconfig:"_POOL_IMAGE_PUBLISHER" validate:"required"`
	ImageOffer         string `envconfig:"_POOL_IMAGE_OFFER" validate:"required"`
	ImageSKU           string `envconfig:"_POOL_IMAGE_SKU" validate:"required"`
	ImageVersion       string `envconfig:"_POOL_IMAGE_VERSION" validate:"required"`
	NodeAgentSKUID     string `envconfig:"_POOL_NODE_AGENT_SKU" validate:"required"`
	StartCommand       string `envconfig:"_POOL_START_COMMAND"`
	StartTaskPrivilege string `envconfig:"_POOL_START_TASK_PRIVILEGE" validate:"oneof=user admin"`
}

// Load reads the settings from the environment on top of the defaults. Load does not validate,
// each function validates the subset it needs.
func Load() (*Settings, error) {
	s := defaultSettings.DeepCopy()
	if err := envconfig.Process("", s); err != nil {
		return nil, fmt.Errorf("parsing settings, %w", err)
	}
	s.TrimSpace()
	s.applyDefaults()
	return s, nil
}

// Validate checks every field required to create a pool. A non-blank NodeCount is parsed into
// TargetNodeCount first.
func (s *Settings) Validate() error {
	if s.NodeCount != "" {
		count, err := strconv.ParseInt(s.NodeCount, 10, 32)
		if err != nil {
			return multierr.Combine(
				fmt.Errorf("invalid _POOL_NODE_COUNT %q, %w", s.NodeCount, err),
				utils.ValidatePoolID(s.PoolID),
			)
		}
		s.TargetNodeCount = lo.ToPtr(int32(count))
	}
	validate := validator.New()
	return multierr.Combine(
		validate.Struct(s),
		utils.ValidatePoolID(s.PoolID),
	)
}

// ValidateForDelete only checks the fields a pool deletion needs.
func (s *Settings) ValidateForDelete() error {
	validate := validator.New()
	return multierr.Combine(
		validate.StructPartial(s, "PoolID"),
		utils.ValidatePoolID(s.PoolID),
	)
}

func (s *Settings) TrimSpace() {
	s.PoolID = strings.TrimSpace(s.PoolID)
	s.VMSize = strings.TrimSpace(s.VMSize)
	s.NodeCount = strings.TrimSpace(s.NodeCount)
	s.ImagePublisher = strings.TrimSpace(s.ImagePublisher)
	s.ImageOffer = strings.TrimSpace(s.ImageOffer)
	s.ImageSKU = strings.TrimSpace(s.ImageSKU)
	s.ImageVersion = strings.TrimSpace(s.ImageVersion)
	s.NodeAgentSKUID = strings.TrimSpace(s.NodeAgentSKUID)
	s.StartCommand = strings.TrimSpace(s.StartCommand)
	s.StartTaskPrivilege = strings.ToLower(strings.TrimSpace(s.StartTaskPrivilege))
}

// applyDefaults restores defaults for optional settings that are present but blank.
func (s *Settings) applyDefaults() {
	fill := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	fill(&s.ImagePublisher, defaultSettings.ImagePublisher)
	fill(&s.ImageOffer, defaultSettings.ImageOffer)
	fill(&s.ImageSKU, defaultSettings.ImageSKU)
	fill(&s.ImageVersion, defaultSettings.ImageVersion)
	fill(&s.NodeAgentSKUID, defaultSettings.NodeAgentSKUID)
	fill(&s.StartCommand, defaultSettings.StartCommand)
	fill(&s.StartTaskPrivilege, defaultSettings.StartTaskPrivilege)
}

func (s *Settings) DeepCopy() *Settings {
	if s == nil {
		return nil
	}
	out := *s
	if s.TargetNodeCount != nil {
		count := *s.TargetNodeCount
		out.TargetNodeCount = &count
	}
	return &out
}
