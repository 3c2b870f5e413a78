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
	"fmt"
	"net/http"
	"time"

	"k8s.io/utils/clock"
	"knative.dev/pkg/logging"

	"github.com/azure/batch-pool-functions/pkg/apis/settings"
	"github.com/azure/batch-pool-functions/pkg/providers/pool"
	"github.com/azure/batch-pool-functions/pkg/utils"
)

// CreateHandler serves the batch_pool_start function.
type CreateHandler struct {
	pools    PoolManager
	settings *settings.Settings
	clock    clock.PassiveClock
}

// NewCreateHandler validates the settings a pool creation needs and returns a configuration
// error if any of them is missing.
func NewCreateHandler(pools PoolManager, s *settings.Settings, clk clock.PassiveClock) (*CreateHandler, error) {
	if s == nil {
		return nil, utils.NewConfigurationError(fmt.Errorf("pool settings not provided"))
	}
	if err := s.Validate(); err != nil {
		return nil, utils.NewConfigurationError(err)
	}
	return &CreateHandler{
		pools:    pools,
		settings: s.DeepCopy(),
		clock:    clk,
	}, nil
}

func (h *CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithLogger(r.Context(), logging.FromContext(r.Context()).With("poolId", h.settings.PoolID))
	logger := logging.FromContext(ctx)

	start := h.clock.Now().Truncate(time.Second)
	logger.Infof("Pool Creation start time: %s", start.Format(timestampLayout))

	if err := h.pools.Create(ctx, pool.NewSpecification(h.settings)); err != nil {
		logger.Errorf("Pool Creation failed after %s: %v", h.clock.Now().Truncate(time.Second).Sub(start), err)
		writeError(w, err)
		return
	}

	end := h.clock.Now().Truncate(time.Second)
	logger.Infof("Pool Creation end time: %s", end.Format(timestampLayout))
	logger.Infof("Pool Creation elapsed time: %s", end.Sub(start))

	writePoolID(w, h.settings.PoolID)
}
