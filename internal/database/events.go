package database

import (
	"context"
	"encoding/json"
	"fmt"

	"rwa-registry-go/internal/models"

	"go.uber.org/zap"
)

const (
	defaultEventLimit = 50
	maxEventLimit     = 500
)

// ListEvents returns journaled events, newest first
func (s *Service) ListEvents(ctx context.Context, filter models.EventFilter) ([]models.Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEventLimit
	}
	if limit > maxEventLimit {
		limit = maxEventLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	eventType := string(filter.Type)
	rows, err := s.db.QueryContext(ctx, queryListEvents,
		eventType, eventType,
		filter.AssetId, filter.AssetId,
		filter.Actor, filter.Actor, filter.Actor,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer closeRows(rows)

	var events []models.Event
	for rows.Next() {
		var e models.Event
		var eventTypeStr, amount, value, attributes, occurredAt string
		err := rows.Scan(&e.Id, &eventTypeStr, &e.AssetId, &e.DistributionId, &e.Actor, &e.Counterparty,
			&amount, &value, &attributes, &occurredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Type = models.EventType(eventTypeStr)
		if e.Amount, err = parseDecimal("amount", amount); err != nil {
			return nil, err
		}
		if e.Value, err = parseDecimal("value", value); err != nil {
			return nil, err
		}
		if e.OccurredAt, err = parseTimestamp(occurredAt); err != nil {
			return nil, err
		}
		if attributes != "" && attributes != "{}" {
			if err := json.Unmarshal([]byte(attributes), &e.Attributes); err != nil {
				zap.L().Warn("Failed to decode event attributes",
					zap.String("event_id", e.Id),
					zap.Error(err))
			}
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}
