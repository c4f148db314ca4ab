package services

import (
	"context"
	"database/sql"

	"repairlog/internal/models"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"
)

// EventService records lightweight repair events. An event is written as
// soon as a capture starts, before any wizard step completes, so the outcome
// tally stays accurate even for captures abandoned mid-way.
type EventService struct {
	db     *sql.DB
	logger *observability.Logger
}

// NewEventService creates a new EventService instance.
func NewEventService(db *sql.DB, logger *observability.Logger) *EventService {
	if db == nil {
		panic("NewEventService: db is nil")
	}
	if logger == nil {
		panic("NewEventService: logger is nil")
	}
	return &EventService{db: db, logger: logger}
}

// RecordEvent stores a repair event for a product and outcome.
func (s *EventService) RecordEvent(ctx context.Context, productID int, outcome models.RepairOutcome) (result0 *models.RepairEvent, err error) {
	ctx, span := observability.TraceEventFunction(ctx, "record_event",
		observability.AttributeProductID(productID),
		observability.AttributeOutcome(string(outcome)),
	)
	defer observability.FinishSpan(span, &err)

	if !outcome.Valid() {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "invalid outcome %q", outcome)
	}

	event := &models.RepairEvent{
		ProductID: productID,
		Outcome:   outcome,
	}
	query := `INSERT INTO repair_events (product_id, outcome, created_at)
	          VALUES ($1, $2, NOW()) RETURNING id, created_at`
	err = s.db.QueryRowContext(ctx, query, event.ProductID, event.Outcome).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to insert repair event")
	}
	return event, nil
}

// ListEvents returns events for a product newest first. productID zero means
// all products.
func (s *EventService) ListEvents(ctx context.Context, productID int) (result0 []models.RepairEvent, err error) {
	ctx, span := observability.TraceEventFunction(ctx, "list_events", observability.AttributeProductID(productID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT id, product_id, outcome, created_at FROM repair_events`
	var args []interface{}
	if productID != 0 {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query repair events")
	}
	defer func() {
		_ = rows.Close()
	}()

	events := []models.RepairEvent{}
	for rows.Next() {
		var e models.RepairEvent
		if err := rows.Scan(&e.ID, &e.ProductID, &e.Outcome, &e.CreatedAt); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan repair event")
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate repair events")
	}
	return events, nil
}

// CountEventsByOutcome tallies events per outcome for a product. productID
// zero means all products.
func (s *EventService) CountEventsByOutcome(ctx context.Context, productID int) (result0 map[string]int, err error) {
	ctx, span := observability.TraceEventFunction(ctx, "count_events_by_outcome", observability.AttributeProductID(productID))
	defer observability.FinishSpan(span, &err)

	query := `SELECT outcome, COUNT(*) FROM repair_events`
	var args []interface{}
	if productID != 0 {
		query += ` WHERE product_id = $1`
		args = append(args, productID)
	}
	query += ` GROUP BY outcome`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to query event counts")
	}
	defer func() {
		_ = rows.Close()
	}()

	counts := map[string]int{}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, contextutils.WrapError(err, "failed to scan event count")
		}
		counts[outcome] = count
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate event counts")
	}
	return counts, nil
}
