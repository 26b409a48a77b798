package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"loan-approval-service/internal/cache"
	"loan-approval-service/internal/entity"
	"loan-approval-service/internal/model"
)

// ErrDuplicateSubmission is returned when a submission key was already used.
var ErrDuplicateSubmission = errors.New("application already submitted")

const (
	submissionTTL  = 24 * time.Hour
	publishTimeout = 5 * time.Second
)

// LoanStore is the persistence LoanService needs.
type LoanStore interface {
	Create(ctx context.Context, loan *entity.Loan) (*entity.Loan, error)
	ListByUser(ctx context.Context, userID int64) ([]*entity.Loan, error)
	StatsByUser(ctx context.Context, userID int64) (entity.LoanStats, error)
}

// Predictor classifies an application row as 0 (rejected) or 1 (approved).
type Predictor interface {
	Predict(row model.Row) (int, error)
}

// EventWriter is satisfied by *kafka.Writer.
type EventWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// LoanDecisionEvent is published after every stored decision.
type LoanDecisionEvent struct {
	LoanID    int64     `json:"loan_id"`
	UserID    int64     `json:"user_id"`
	Status    int       `json:"loan_status"`
	Decision  string    `json:"decision"`
	DecidedAt time.Time `json:"decided_at"`
}

type LoanService struct {
	repo      LoanStore
	predictor Predictor
	store     cache.Store
	events    EventWriter
	statsTTL  time.Duration
}

// NewLoanService wires the loan flow. events may be nil to skip publishing.
func NewLoanService(repo LoanStore, predictor Predictor, store cache.Store, events EventWriter, statsTTL time.Duration) *LoanService {
	return &LoanService{
		repo:      repo,
		predictor: predictor,
		store:     store,
		events:    events,
		statsTTL:  statsTTL,
	}
}

// StatsCacheKey is the cache entry holding a user's decision counts.
func StatsCacheKey(userID int64) string {
	return fmt.Sprintf("loan_stats:%d", userID)
}

func statsGenerationKey(userID int64) string {
	return fmt.Sprintf("loan_stats_gen:%d", userID)
}

// InvalidateStats drops the cached counts and bumps the user's stats
// generation, so a Stats call that read the database before the bump
// does not cache its stale result.
func InvalidateStats(ctx context.Context, store cache.Store, userID int64) error {
	if err := store.Set(ctx, statsGenerationKey(userID), uuid.NewString(), submissionTTL); err != nil {
		return err
	}
	return store.Delete(ctx, StatsCacheKey(userID))
}

func (s *LoanService) statsGeneration(ctx context.Context, userID int64) (string, error) {
	gen, err := s.store.Get(ctx, statsGenerationKey(userID))
	if errors.Is(err, cache.ErrKeyNotFound) {
		return "", nil
	}
	return gen, err
}

func submissionKey(key string) string {
	return "submission:" + key
}

// Apply predicts the application, stores the decision for userID and
// returns the stored loan. A non-empty submissionKey can only be used
// once; a reused key returns ErrDuplicateSubmission. Text values that do
// not fit their columns return entity.ErrFieldTooLong.
func (s *LoanService) Apply(ctx context.Context, userID int64, app entity.LoanApplication, key string) (*entity.Loan, error) {
	if err := app.Validate(); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("Rejected loan application")
		return nil, err
	}

	if key != "" {
		fresh, err := s.store.SetNX(ctx, submissionKey(key), fmt.Sprint(userID), submissionTTL)
		if err != nil {
			logger.Error().Err(err).Msg("Error claiming submission key")
			return nil, err
		}
		if !fresh {
			logger.Warn().Str("submission_key", key).Int64("user_id", userID).Msg("Duplicate loan submission")
			return nil, ErrDuplicateSubmission
		}
	}

	loan, err := s.decide(ctx, userID, app)
	if err != nil {
		// Let the applicant retry with the same form.
		if key != "" {
			if derr := s.store.Delete(ctx, submissionKey(key)); derr != nil {
				logger.Warn().Err(derr).Msg("Error releasing submission key")
			}
		}
		return nil, err
	}

	if err := InvalidateStats(ctx, s.store, userID); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("Error invalidating loan stats cache")
	}

	if err := s.publishDecision(ctx, loan); err != nil {
		logger.Error().Err(err).Int64("loan_id", loan.ID).Msg("Error publishing loan decision")
	}

	logger.Info().Int64("loan_id", loan.ID).Int64("user_id", userID).Int("loan_status", loan.LoanStatus).Msg("Loan decided")
	return loan, nil
}

func (s *LoanService) decide(ctx context.Context, userID int64, app entity.LoanApplication) (*entity.Loan, error) {
	status, err := s.predictor.Predict(model.Row(app.Features()))
	if err != nil {
		logger.Error().Err(err).Msg("Error predicting loan status")
		return nil, fmt.Errorf("predict: %w", err)
	}

	loan, err := s.repo.Create(ctx, &entity.Loan{
		UserID:          userID,
		LoanStatus:      status,
		LoanApplication: app,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating loan")
		return nil, err
	}
	return loan, nil
}

// History returns the user's loans, newest first.
func (s *LoanService) History(ctx context.Context, userID int64) ([]*entity.Loan, error) {
	loans, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error listing loans for user %d", userID)
		return nil, err
	}
	return loans, nil
}

// Stats returns the user's decision counts, served from the cache when
// present.
func (s *LoanService) Stats(ctx context.Context, userID int64) (entity.LoanStats, error) {
	key := StatsCacheKey(userID)

	cached, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		var stats entity.LoanStats
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return stats, nil
		}
		logger.Warn().Str("key", key).Msg("Discarding unreadable loan stats cache entry")
	case !errors.Is(err, cache.ErrKeyNotFound):
		logger.Warn().Err(err).Str("key", key).Msg("Error reading loan stats cache")
	}

	before, genErr := s.statsGeneration(ctx, userID)

	stats, err := s.repo.StatsByUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Msgf("Error getting loan stats for user %d", userID)
		return entity.LoanStats{}, err
	}

	if genErr != nil {
		logger.Warn().Err(genErr).Str("key", key).Msg("Error reading loan stats generation")
		return stats, nil
	}
	if after, err := s.statsGeneration(ctx, userID); err != nil || after != before {
		// Invalidated while reading; the next call repopulates.
		return stats, nil
	}

	data, _ := json.Marshal(stats)
	if err := s.store.Set(ctx, key, string(data), s.statsTTL); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Error caching loan stats")
	}
	return stats, nil
}

func (s *LoanService) publishDecision(ctx context.Context, loan *entity.Loan) error {
	if s.events == nil {
		return nil
	}

	eventJSON, err := json.Marshal(LoanDecisionEvent{
		LoanID:    loan.ID,
		UserID:    loan.UserID,
		Status:    loan.LoanStatus,
		Decision:  entity.StatusText(loan.LoanStatus),
		DecidedAt: loan.CreatedAt,
	})
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("loan.predicted.%d", loan.ID)),
		Value: eventJSON,
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return s.events.WriteMessages(ctx, msg)
}

var (
	_ Predictor   = (*model.Pipeline)(nil)
	_ EventWriter = (*kafka.Writer)(nil)
)
