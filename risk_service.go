package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// riskFactorService stores and scores risk-factor submissions. Scoring and
// validation are delegated to the pure functions in risk_factors.go; the service
// only adds persistence, events and the simulated submit latency.
type riskFactorService struct {
	store            keyedStore[riskFactorRecord]
	events           riskEventPublisher
	submitDelay      time.Duration
	requireSelection bool
	now              func() time.Time
}

func newRiskFactorService(store keyedStore[riskFactorRecord], events riskEventPublisher, submitDelay time.Duration, requireSelection bool) *riskFactorService {
	return &riskFactorService{
		store:            store,
		events:           events,
		submitDelay:      submitDelay,
		requireSelection: requireSelection,
		now:              time.Now,
	}
}

// check runs the structural and selection validators in order.
func (s *riskFactorService) check(set riskFactorSet) validationResult {
	if r := validateRiskFactors(set); !r.Valid {
		return r
	}
	return validateMinimumSelection(set, s.requireSelection)
}

// Save validates, scores and stores set for userID, replacing any previous record.
// A non-valid result is returned with a nil error; err is reserved for storage failures.
func (s *riskFactorService) Save(ctx context.Context, userID int, set riskFactorSet) (riskFactorRecord, validationResult, error) {
	if r := s.check(set); !r.Valid {
		return riskFactorRecord{}, r, nil
	}

	rec := riskFactorRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		RiskScore: computeRiskScore(set),
		CreatedAt: set.RegisteredAt,
		UpdatedAt: s.now().UnixMilli(),
	}.withFactors(set)

	if err := s.store.Put(ctx, userID, rec); err != nil {
		return riskFactorRecord{}, validationResult{}, fmt.Errorf("save risk factors: %w", err)
	}
	s.publish(ctx, eventRiskSaved, rec)
	return rec, valid(), nil
}

// Get returns the stored record or errRecordNotFound.
func (s *riskFactorService) Get(ctx context.Context, userID int) (riskFactorRecord, error) {
	return s.store.Get(ctx, userID)
}

// Update replaces the flags of an existing record and re-scores it. It returns
// errRecordNotFound when the user has nothing stored yet.
func (s *riskFactorService) Update(ctx context.Context, userID int, set riskFactorSet) (riskFactorRecord, validationResult, error) {
	existing, err := s.store.Get(ctx, userID)
	if err != nil {
		return riskFactorRecord{}, validationResult{}, err
	}
	if r := s.check(set); !r.Valid {
		return riskFactorRecord{}, r, nil
	}

	rec := existing.withFactors(set)
	rec.RiskScore = computeRiskScore(set)
	rec.UpdatedAt = s.now().UnixMilli()

	if err := s.store.Update(ctx, userID, rec); err != nil {
		return riskFactorRecord{}, validationResult{}, fmt.Errorf("update risk factors: %w", err)
	}
	s.publish(ctx, eventRiskUpdated, rec)
	return rec, valid(), nil
}

// Delete removes the user's record. Deleting a missing record succeeds.
func (s *riskFactorService) Delete(ctx context.Context, userID int) error {
	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, errRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete risk factors: %w", err)
	}
	s.publish(ctx, eventRiskDeleted, rec)
	return nil
}

// Statistics summarises the stored record.
func (s *riskFactorService) Statistics(ctx context.Context, userID int) (riskStatistics, error) {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return riskStatistics{}, err
	}
	return riskStatistics{
		TotalFactors: activeFactorCount(rec.factors()),
		RiskScore:    rec.RiskScore,
		RiskLevel:    riskLevelFor(rec.RiskScore),
		LastUpdate:   rec.UpdatedAt,
	}, nil
}

// Submit models the round trip to the remote assessment service: it waits
// submitDelay (returning early with ctx.Err() on cancellation), then validates and
// scores. Nothing is stored.
func (s *riskFactorService) Submit(ctx context.Context, set riskFactorSet) (riskSubmission, error) {
	if s.submitDelay > 0 {
		select {
		case <-time.After(s.submitDelay):
		case <-ctx.Done():
			return riskSubmission{}, ctx.Err()
		}
	}

	if r := s.check(set); !r.Valid {
		msg := r.Message()
		if msg == "" {
			msg = "Datos inválidos"
		}
		return riskSubmission{Success: false, Message: msg}, nil
	}

	score := computeRiskScore(set)
	return riskSubmission{
		Success:         true,
		Message:         "Factores de riesgo registrados correctamente",
		RiskScore:       &score,
		RiskLevel:       riskLevelFor(score),
		Recommendations: generateRecommendations(set),
	}, nil
}

// publish never fails the caller; a broker outage only costs the event.
func (s *riskFactorService) publish(ctx context.Context, typ string, rec riskFactorRecord) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, newRiskEvent(typ, rec, s.now())); err != nil {
		log.Printf("[riskFactorService] publish %s for user %d failed: %v", typ, rec.UserID, err)
	}
}
