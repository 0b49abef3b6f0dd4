package main

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// errRecordNotFound is returned by keyedStore implementations when no value is
// stored for the requested user.
var errRecordNotFound = errors.New("record not found")

// keyedStore is a per-user key-value contract. Put overwrites; Update fails with
// errRecordNotFound when nothing is stored yet; Delete of a missing key is a no-op.
type keyedStore[T any] interface {
	Get(ctx context.Context, userID int) (T, error)
	Put(ctx context.Context, userID int, v T) error
	Update(ctx context.Context, userID int, v T) error
	Delete(ctx context.Context, userID int) error
}

/* ─── In-memory store ────────────────────────────────────────────────── */

// memoryStore keeps values in a map. Safe for concurrent use.
type memoryStore[T any] struct {
	mu   sync.RWMutex
	data map[int]T
}

func newMemoryStore[T any]() *memoryStore[T] {
	return &memoryStore[T]{data: make(map[int]T)}
}

func (s *memoryStore[T]) Get(_ context.Context, userID int) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[userID]
	if !ok {
		var zero T
		return zero, errRecordNotFound
	}
	return v, nil
}

func (s *memoryStore[T]) Put(_ context.Context, userID int, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = v
	return nil
}

func (s *memoryStore[T]) Update(_ context.Context, userID int, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[userID]; !ok {
		return errRecordNotFound
	}
	s.data[userID] = v
	return nil
}

func (s *memoryStore[T]) Delete(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

/* ─── Postgres store ─────────────────────────────────────────────────── */

// pgRiskFactorStore persists riskFactorRecord rows in the risk_factors table,
// one row per user.
type pgRiskFactorStore struct {
	db *pgxpool.Pool
}

func (s *pgRiskFactorStore) Get(ctx context.Context, userID int) (riskFactorRecord, error) {
	rec, err := queryOne[riskFactorRecord](s.db, ctx,
		"SELECT * FROM risk_factors WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if errors.Is(err, pgx.ErrNoRows) {
		return rec, errRecordNotFound
	}
	return rec, err
}

func (s *pgRiskFactorStore) Put(ctx context.Context, userID int, rec riskFactorRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO risk_factors (id, user_id, hypertension, diabetes, high_cholesterol,
			family_history, overweight, sedentary_lifestyle, smoking, chronic_stress,
			risk_score, created_at, updated_at)
		 VALUES (@id, @userID, @hypertension, @diabetes, @highCholesterol,
			@familyHistory, @overweight, @sedentaryLifestyle, @smoking, @chronicStress,
			@riskScore, @createdAt, @updatedAt)
		 ON CONFLICT (user_id) DO UPDATE SET
			id                  = EXCLUDED.id,
			hypertension        = EXCLUDED.hypertension,
			diabetes            = EXCLUDED.diabetes,
			high_cholesterol    = EXCLUDED.high_cholesterol,
			family_history      = EXCLUDED.family_history,
			overweight          = EXCLUDED.overweight,
			sedentary_lifestyle = EXCLUDED.sedentary_lifestyle,
			smoking             = EXCLUDED.smoking,
			chronic_stress      = EXCLUDED.chronic_stress,
			risk_score          = EXCLUDED.risk_score,
			created_at          = EXCLUDED.created_at,
			updated_at          = EXCLUDED.updated_at`,
		riskRecordArgs(userID, rec))
	if err != nil {
		return fmt.Errorf("upsert risk factors: %w", err)
	}
	return nil
}

func (s *pgRiskFactorStore) Update(ctx context.Context, userID int, rec riskFactorRecord) error {
	result, err := s.db.Exec(ctx,
		`UPDATE risk_factors SET
			hypertension        = @hypertension,
			diabetes            = @diabetes,
			high_cholesterol    = @highCholesterol,
			family_history      = @familyHistory,
			overweight          = @overweight,
			sedentary_lifestyle = @sedentaryLifestyle,
			smoking             = @smoking,
			chronic_stress      = @chronicStress,
			risk_score          = @riskScore,
			updated_at          = @updatedAt
		 WHERE user_id = @userID`,
		riskRecordArgs(userID, rec))
	if err != nil {
		return fmt.Errorf("update risk factors: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errRecordNotFound
	}
	return nil
}

func (s *pgRiskFactorStore) Delete(ctx context.Context, userID int) error {
	if _, err := s.db.Exec(ctx,
		"DELETE FROM risk_factors WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID}); err != nil {
		return fmt.Errorf("delete risk factors: %w", err)
	}
	return nil
}

func riskRecordArgs(userID int, rec riskFactorRecord) pgx.NamedArgs {
	return pgx.NamedArgs{
		"id":                 rec.ID,
		"userID":             userID,
		"hypertension":       rec.Hypertension,
		"diabetes":           rec.Diabetes,
		"highCholesterol":    rec.HighCholesterol,
		"familyHistory":      rec.FamilyHistory,
		"overweight":         rec.Overweight,
		"sedentaryLifestyle": rec.SedentaryLifestyle,
		"smoking":            rec.Smoking,
		"chronicStress":      rec.ChronicStress,
		"riskScore":          rec.RiskScore,
		"createdAt":          rec.CreatedAt,
		"updatedAt":          rec.UpdatedAt,
	}
}
