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

package main

import (
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"knative.dev/pkg/signals"

	"github.com/azure/batch-pool-functions/pkg/operator"
)

func main() {
	opts := &operator.Options{}
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()

	ctx, op, err := operator.NewOperator(signals.NewContext(), opts)
	lo.Must0(err)
	lo.Must0(op.Start(ctx))
}
