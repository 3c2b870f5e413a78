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
	"github.com/azure/batch-pool-functions/pkg/utils"
)

// DeleteHandler serves the batch_pool_stop function.
type DeleteHandler struct {
	pools  PoolManager
	poolID string
	clock  clock.PassiveClock
}

// NewDeleteHandler only needs the pool id, it returns a configuration error when it is missing or invalid.
func NewDeleteHandler(pools PoolManager, s *settings.Settings, clk clock.PassiveClock) (*DeleteHandler, error) {
	if s == nil {
		return nil, utils.NewConfigurationError(fmt.Errorf("pool settings not provided"))
	}
	if err := s.ValidateForDelete(); err != nil {
		return nil, utils.NewConfigurationError(err)
	}
	return &DeleteHandler{
		pools:  pools,
		poolID: s.PoolID,
		clock:  clk,
	}, nil
}

func (h *DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithLogger(r.Context(), logging.FromContext(r.Context()).With("poolId", h.poolID))
	logger := logging.FromContext(ctx)

	start := h.clock.Now().Truncate(time.Second)
	logger.Infof("Pool Deletion start time: %s", start.Format(timestampLayout))

	if err := h.pools.Delete(ctx, h.poolID); err != nil {
		logger.Errorf("Pool Deletion failed after %s: %v", h.clock.Now().Truncate(time.Second).Sub(start), err)
		writeError(w, err)
		return
	}

	end := h.clock.Now().Truncate(time.Second)
	logger.Infof("Pool Deletion end time: %s", end.Format(timestampLayout))
	logger.Infof("Pool Deletion elapsed time: %s", end.Sub(start))

	writePoolID(w, h.poolID)
}
