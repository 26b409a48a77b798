package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"loan-approval-service/internal/cache"
	"loan-approval-service/internal/service"
)

// sliceReader replays msgs, then reports io.EOF.
type sliceReader struct {
	msgs []kafka.Message
	errs []error
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return kafka.Message{}, err
	}
	if len(r.msgs) == 0 {
		return kafka.Message{}, io.EOF
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func decision(t *testing.T, loanID, userID int64) kafka.Message {
	t.Helper()
	value, err := json.Marshal(service.LoanDecisionEvent{LoanID: loanID, UserID: userID, Status: 1, Decision: "Approved", DecidedAt: time.Now()})
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Key: []byte("loan.predicted." + strconv.FormatInt(loanID, 10)), Value: value}
}

func TestRun_InvalidatesStats(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	_ = store.Set(ctx, service.StatsCacheKey(7), `{"total":1}`, time.Minute)
	_ = store.Set(ctx, service.StatsCacheKey(8), `{"total":2}`, time.Minute)

	reader := &sliceReader{
		errs: []error{errors.New("transient")},
		msgs: []kafka.Message{
			decision(t, 1, 7),
			{Key: []byte("garbage"), Value: []byte("{}")},
		},
	}
	NewConsumer(reader, store).Run(ctx)

	if _, err := store.Get(ctx, service.StatsCacheKey(7)); !errors.Is(err, cache.ErrKeyNotFound) {
		t.Fatalf("stats for user 7 should be dropped, got %v", err)
	}
	if _, err := store.Get(ctx, service.StatsCacheKey(8)); err != nil {
		t.Fatalf("stats for user 8 should stay cached: %v", err)
	}
}

func TestProcessMessage_Errors(t *testing.T) {
	c := NewConsumer(&sliceReader{}, cache.NewMemoryStore())
	ctx := context.Background()

	cases := map[string]kafka.Message{
		"bad key":       {Key: []byte("order.created.1")},
		"unknown event": {Key: []byte("loan.updated.1"), Value: []byte("{}")},
		"bad payload":   {Key: []byte("loan.predicted.1"), Value: []byte("{")},
	}
	for name, msg := range cases {
		if err := c.processMessage(ctx, msg); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reader := &sliceReader{errs: []error{context.Canceled}}

	done := make(chan struct{})
	go func() {
		NewConsumer(reader, cache.NewMemoryStore()).Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}
