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

// Command lipallocd hosts the LIP/lport allocator's control-plane surface:
// it publishes the process-wide core mask and pool mode once at startup,
// starts the prometheus metrics listener, and wires an empty service
// registry and dispatcher ready to be driven by the host's request/reply
// transport. The dataplane fast path (Bind/Unbind) and the SA-pool itself
// are linked in by whatever embeds this package; this binary only owns
// process lifecycle and control-plane bootstrap.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/weiyanhua100/dpvs/pkg/corebits"
	"github.com/weiyanhua100/dpvs/pkg/iface"
	"github.com/weiyanhua100/dpvs/pkg/laddr"
)

func main() {
	klog.InitFlags(flag.CommandLine)

	cmd := &cobra.Command{
		Use: "lipallocd",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			klog.V(2).InfoS("persistent pre run", "command", cmd.Name())
		},
	}
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(serveCmd(), versionCmd())

	if err := cmd.Execute(); err != nil {
		klog.Fatal(err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "publish the core mask and pool mode, then block serving control-plane requests",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	corebits.Global.Set(*cores)

	mode := laddr.PortLcoreMapping
	if *addrMode {
		mode = laddr.AddrLcoreMapping
	}
	laddr.SetPoolMode(mode)

	klog.InfoS("lipallocd starting",
		"cores", corebits.Global.Cores(), "poolMode", mode)

	stopCh := make(chan struct{})
	startMetricsServer(*exportMetrics, stopCh)

	services := laddr.NewRegistry()
	interfaces := iface.NewRegistry()
	// No SA-pool address directory is wired here: with a nil directory an
	// addr-mode Add inserts no per-core entries (it logs and returns Ok),
	// while port-mode Add never consults it.
	dispatcher := laddr.NewDispatcher(services, interfaces, nil)
	klog.V(2).InfoS("control-plane dispatcher ready", "dispatcher", dispatcher)

	waitForTermSignal()
	close(stopCh)
	klog.InfoS("lipallocd stopping")
}

func waitForTermSignal() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	<-ch
}
