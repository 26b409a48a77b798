package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"loan-approval-service/internal/cache"
	"loan-approval-service/internal/service"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// Consumer follows the decision topic so that every instance drops its
// cached stats for a user when any instance decides one of their loans.
type Consumer struct {
	reader MessageReader
	store  cache.Store
}

func NewConsumer(reader MessageReader, store cache.Store) *Consumer {
	return &Consumer{reader: reader, store: store}
}

// Run reads until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return
			}
			logger.Error().Err(err).Msg("Error reading decision message")
			continue
		}

		if err := c.processMessage(ctx, msg); err != nil {
			logger.Error().Err(err).Str("key", string(msg.Key)).Msg("Error processing decision message")
		}
	}
}

// processMessage handles one event. Keys look like "loan.predicted.<id>".
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) error {
	parts := strings.Split(string(msg.Key), ".")
	if len(parts) != 3 || parts[0] != "loan" {
		return fmt.Errorf("unexpected message key %q", msg.Key)
	}

	switch parts[1] {
	case "predicted":
		var ev service.LoanDecisionEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			return fmt.Errorf("decode decision: %w", err)
		}
		if err := service.InvalidateStats(ctx, c.store, ev.UserID); err != nil {
			return err
		}
		logger.Info().
			Int64("loan_id", ev.LoanID).
			Int64("user_id", ev.UserID).
			Str("decision", ev.Decision).
			Time("decided_at", ev.DecidedAt).
			Msg("Loan decision received")
		return nil
	default:
		return fmt.Errorf("unknown loan event %q", parts[1])
	}
}
