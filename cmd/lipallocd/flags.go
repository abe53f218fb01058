/*
Copyright 2026 The Allocator Authors.

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
	"github.com/spf13/pflag"
)

var (
	lipallocFlags = &pflag.FlagSet{}

	exportMetrics = lipallocFlags.String("export-metrics", "0.0.0.0:9099", "start the prometheus metrics server on the given address")
	cores         = lipallocFlags.IntSlice("cores", []int{0, 1, 2, 3}, "worker core ids eligible to own LocalAddress entries and SA sub-pools")
	addrMode      = lipallocFlags.Bool("addr-lcore-mapping", false, "use AddrLcoreMapping instead of the default PortLcoreMapping")
)

// BindFlags registers this package's flags onto flags, the same pattern
// the ipvs backend uses to let its own flag set be folded into a shared
// command-line surface.
func BindFlags(flags *pflag.FlagSet) {
	flags.AddFlagSet(lipallocFlags)
}
