// Copyright (c) 2024-2025, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package web_site

import (
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/cellsim/cellsim/logger"
)

var httpServer *http.Server = nil
var debugServer *http.Server = nil
var canServe bool = true
var httpServerMutex sync.Mutex
var Started = make(chan struct{})

const indexPage = `<html><head><title>cellsim</title></head><body>
<h1>cellsim</h1><ul><li><a href="/metrics">metrics</a></li></ul></body></html>`

func newServeMux(metricsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler)
	mux.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/" {
			http.NotFound(writer, request)
			return
		}
		writer.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(writer, indexPage)
	})
	return mux
}

// Serve serves the Prometheus metrics handler on listenAddr until StopServe is called.
func Serve(listenAddr string, metricsHandler http.Handler) error {
	defer logger.Debugf("webserver exit.")

	mux := newServeMux(metricsHandler)

	httpServerMutex.Lock()
	if !canServe {
		httpServer = nil
		httpServerMutex.Unlock()
		close(Started)
		return http.ErrServerClosed
	}

	httpServer = &http.Server{
		Addr:    listenAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}
	logger.Infof("metrics webserver now serving on %s ...", listenAddr)
	defer logger.Tracef("webserver: httpServer.ListenAndServe() done")
	httpServerMutex.Unlock()
	close(Started)
	return httpServer.ListenAndServe()
}

// ServeDebugPort starts the Go pprof debug server on the specified port. Function does not block.
func ServeDebugPort(httpDebugPort int) {
	httpServerMutex.Lock()
	defer httpServerMutex.Unlock()

	if !canServe {
		debugServer = nil
		return
	}
	debugServer = &http.Server{Addr: fmt.Sprintf("localhost:%d", httpDebugPort)}
	go func() {
		err := debugServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("pprof debug server failed: %v", err)
		}
	}()
}

func StopServe() {
	logger.Debugf("requesting metrics webserver to exit ...")
	httpServerMutex.Lock()
	defer httpServerMutex.Unlock()

	if httpServer != nil {
		_ = httpServer.Close()
	}
	if debugServer != nil {
		_ = debugServer.Close()
	}
	canServe = false // prevent serving again in same execution.
}
