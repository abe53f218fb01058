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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	utilwait "k8s.io/apimachinery/pkg/util/wait"
	"k8s.io/klog/v2"
)

const readHeaderTimeout = 5 * time.Second

// startMetricsServer runs the prometheus /metrics listener until stopChan
// closes, restarting the HTTP server if it ever exits unexpectedly.
func startMetricsServer(bindAddress string, stopChan <-chan struct{}) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	klog.InfoS("starting metrics server", "address", bindAddress)

	go func() {
		var server *http.Server
		go utilwait.Until(func() {
			server = &http.Server{
				Addr:              bindAddress,
				Handler:           mux,
				ReadHeaderTimeout: readHeaderTimeout,
			}
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				utilruntime.HandleError(fmt.Errorf("metrics server exited: %w", err))
			}
		}, 5*time.Second, stopChan)

		<-stopChan
		klog.InfoS("stopping metrics server", "address", bindAddress)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if server != nil {
			_ = server.Shutdown(shutdownCtx)
		}
	}()
}
