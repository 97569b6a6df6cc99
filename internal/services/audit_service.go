package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/resource"
	"tbpedia-dashboard/internal/session"
)

// AuditService records mutation attempts in MySQL. With a nil db it only
// logs, so the dashboard runs without a database.
type AuditService struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAuditService(db *sql.DB, logger zerolog.Logger) *AuditService {
	return &AuditService{
		db:     db,
		logger: logger,
	}
}

func (s *AuditService) Enabled() bool {
	return s.db != nil
}

// RecordMutation implements resource.Auditor. Failures are logged and
// swallowed.
func (s *AuditService) RecordMutation(ctx context.Context, e resource.Event, mutationErr error) {
	rec := newRecord(ctx, e, mutationErr)

	s.logger.Debug().
		Str("resource", rec.Resource).
		Str("action", rec.Action).
		Str("key", rec.Key).
		Str("outcome", string(rec.Outcome)).
		Msg("Mutation attempt")

	if s.db == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO mutation_audit (resource, action, resource_key, outcome, message, credential) VALUES (?, ?, ?, ?, ?, ?)",
		rec.Resource, rec.Action, rec.Key, string(rec.Outcome), rec.Message, rec.Credential,
	)
	if err != nil {
		s.logger.Error().Err(err).Str("resource", rec.Resource).Msg("Error recording mutation")
	}
}

// Recent returns the newest audit rows, optionally for one resource.
func (s *AuditService) Recent(ctx context.Context, resourceName string, limit, offset int) ([]*models.MutationRecord, error) {
	if s.db == nil {
		return []*models.MutationRecord{}, nil
	}

	query := `
		SELECT id, resource, action, resource_key, outcome, COALESCE(message, ''), COALESCE(credential, ''), created_at
		FROM mutation_audit
		WHERE (? = '' OR resource = ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := s.db.QueryContext(ctx, query, resourceName, resourceName, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("resource", resourceName).Msg("Error fetching audit trail")
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	records := []*models.MutationRecord{}
	for rows.Next() {
		var rec models.MutationRecord
		err := rows.Scan(
			&rec.ID, &rec.Resource, &rec.Action, &rec.Key,
			&rec.Outcome, &rec.Message, &rec.Credential, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning audit row: %w", err)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading audit rows: %w", err)
	}
	return records, nil
}

func newRecord(ctx context.Context, e resource.Event, mutationErr error) models.MutationRecord {
	rec := models.MutationRecord{
		Resource: e.Resource,
		Action:   string(e.Action),
		Key:      e.Key,
		Outcome:  models.OutcomeSucceeded,
	}
	if mutationErr != nil {
		rec.Outcome = models.OutcomeFailed
		rec.Message = apperr.Message(mutationErr)
	}
	if store, ok := session.FromContext(ctx); ok {
		if cred, ok := store.Credential(); ok {
			rec.Credential = session.Fingerprint(cred)
		}
	}
	return rec
}
