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
package api

import (
	"context"
	"errors"
	"fmt"

	"rwa-registry-go/internal/metrics"
	"rwa-registry-go/internal/models"
	"rwa-registry-go/internal/registry"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EventJournal reads the persisted audit trail
type EventJournal interface {
	ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
}

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegistryService validates requests and forwards them to the registry
type RegistryService struct {
	registry *registry.Registry
	journal  EventJournal // nil when persistence is disabled
	pinger   Pinger
}

type ServiceOption func(*RegistryService)

func WithJournal(j EventJournal) ServiceOption {
	return func(s *RegistryService) { s.journal = j }
}

func WithPinger(p Pinger) ServiceOption {
	return func(s *RegistryService) { s.pinger = p }
}

func NewRegistryService(reg *registry.Registry, opts ...ServiceOption) *RegistryService {
	s := &RegistryService{
		registry: reg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RegistryService) HealthCheck(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Overview returns the registry aggregates
func (s *RegistryService) Overview() models.RegistryOverview {
	return s.registry.Overview()
}

// record counts the outcome of an operation and logs infrastructure failures
func (s *RegistryService) record(operation string, err error) error {
	switch {
	case err == nil:
		metrics.RecordOperation(operation, "ok")
	case errors.Is(err, ErrInvalidInput) || registry.IsValidationError(err):
		metrics.RecordOperation(operation, "rejected")
		zap.L().Info("Registry operation rejected",
			zap.String("operation", operation),
			zap.Error(err))
	default:
		metrics.RecordOperation(operation, "error")
		zap.L().Error("Registry operation failed",
			zap.String("operation", operation),
			zap.Error(err))
	}
	return err
}

func requireUnits(field string, v decimal.Decimal) error {
	if !v.IsPositive() || !v.IsInteger() {
		return invalidInput("%s must be a positive integer, got %s", field, v.String())
	}
	return nil
}

// requireNonNegativeUnits accepts zero so the registry can apply its own rule
func requireNonNegativeUnits(field string, v decimal.Decimal) error {
	if v.IsNegative() || !v.IsInteger() {
		return invalidInput("%s must be a non-negative integer, got %s", field, v.String())
	}
	return nil
}

func requireAddress(field, address string) error {
	if address == "" {
		return invalidInput("%s is required", field)
	}
	return nil
}
