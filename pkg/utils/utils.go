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

package utils

import (
	"fmt"
	"regexp"
)

// pool IDs may contain alphanumerics, hyphens and underscores, up to 64 characters
var poolIDRegexp = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidatePoolID checks id against the Batch pool naming rules. An empty id is left to the
// required-field validation.
func ValidatePoolID(id string) error {
	if id == "" || poolIDRegexp.MatchString(id) {
		return nil
	}
	return fmt.Errorf("pool id %q must be at most 64 alphanumerics, hyphens or underscores", id)
}
