/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rwa-registry-go/internal/api"
	"rwa-registry-go/internal/common"
	"rwa-registry-go/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

func main() {
	complianceFlag := flag.String("compliance", "", "Path to the compliance YAML applied at start (default: COMPLIANCE_FILE when present)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting RWA registry server", zap.String("addr", cfg.Server.Addr))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	complianceFile := *complianceFlag
	if complianceFile == "" {
		if _, statErr := os.Stat(cfg.ComplianceFile); statErr == nil {
			complianceFile = cfg.ComplianceFile
		}
	}
	if complianceFile != "" {
		compliance, err := common.LoadComplianceConfig(complianceFile)
		if err != nil {
			zap.L().Fatal("Failed to load compliance file", zap.String("file", complianceFile), zap.Error(err))
		}
		if err := common.ApplyCompliance(ctx, services.Registry, compliance); err != nil {
			zap.L().Fatal("Failed to apply compliance file", zap.String("file", complianceFile), zap.Error(err))
		}
	}

	if err := services.Reconciler.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start reconciler", zap.Error(err))
	}

	if cfg.Server.AdminToken == "" {
		zap.L().Warn("ADMIN_TOKEN not set, admin routes will reject every request")
	}

	gin.SetMode(cfg.Server.GinMode)
	opts := []api.ServiceOption{}
	if services.DbService != nil {
		opts = append(opts, api.WithJournal(services.DbService), api.WithPinger(services.DbService))
	}
	router := api.NewRouter(api.NewRegistryService(services.Registry, opts...), cfg.Server)

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		zap.L().Fatal("Failed to listen", zap.String("addr", cfg.Server.Addr), zap.Error(err))
	}
	if cfg.Server.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.Server.MaxConnections)
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		zap.L().Info("HTTP server listening",
			zap.String("addr", listener.Addr().String()),
			zap.Int("max_connections", cfg.Server.MaxConnections))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping server...")
	case err := <-serverErr:
		zap.L().Error("HTTP server failed", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced shutdown after timeout", zap.Error(err))
	} else {
		zap.L().Info("HTTP server stopped gracefully")
	}
	cancel()
}
