package ledgerobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

type captureLogger struct {
	infoMsgs  []string
	errorMsgs []string
}

func (l *captureLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *captureLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}
func (l *captureLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (l *captureLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

type stubLedger struct {
	trade      *domain.ClosedTrade
	amendments []*domain.Amendment
	err        error
	calls      []string
}

func (s *stubLedger) RecordClose(ctx context.Context, trade *domain.ClosedTrade) (*domain.ClosedTrade, error) {
	s.calls = append(s.calls, "RecordClose")
	return s.trade, s.err
}

func (s *stubLedger) AmendClose(ctx context.Context, id string, c *domain.Correction) (*domain.ClosedTrade, error) {
	s.calls = append(s.calls, "AmendClose")
	return s.trade, s.err
}

func (s *stubLedger) GetClose(ctx context.Context, id string) (*domain.ClosedTrade, error) {
	s.calls = append(s.calls, "GetClose")
	return s.trade, s.err
}

func (s *stubLedger) ListClosesInRange(ctx context.Context, q ports.RangeQuery) (ports.TradeCursor, error) {
	s.calls = append(s.calls, "ListClosesInRange")
	return nil, s.err
}

func (s *stubLedger) Amendments(ctx context.Context, id string) ([]*domain.Amendment, error) {
	s.calls = append(s.calls, "Amendments")
	return s.amendments, s.err
}

func TestWrapDelegates(t *testing.T) {
	trade := &domain.ClosedTrade{ID: "T1", Symbol: "ETHUSDT", RR: 2.0}
	stub := &stubLedger{trade: trade, amendments: []*domain.Amendment{{ID: "A1"}}}
	logger := &captureLogger{}
	wrapped := Wrap(stub, logger)
	ctx := context.Background()

	got, err := wrapped.RecordClose(ctx, trade)
	require.NoError(t, err)
	assert.Equal(t, trade, got)

	got, err = wrapped.AmendClose(ctx, "T1", &domain.Correction{})
	require.NoError(t, err)
	assert.Equal(t, trade, got)

	got, err = wrapped.GetClose(ctx, "T1")
	require.NoError(t, err)
	assert.Equal(t, trade, got)

	_, err = wrapped.ListClosesInRange(ctx, ports.RangeQuery{From: time.Unix(0, 0), To: time.Now()})
	require.NoError(t, err)

	trail, err := wrapped.Amendments(ctx, "T1")
	require.NoError(t, err)
	assert.Len(t, trail, 1)

	assert.Equal(t, []string{"RecordClose", "AmendClose", "GetClose", "ListClosesInRange", "Amendments"}, stub.calls)
	assert.Contains(t, logger.infoMsgs, "RecordClose completed")
	assert.Contains(t, logger.infoMsgs, "AmendClose completed")
	assert.Empty(t, logger.errorMsgs)
}

func TestWrapPassesErrorsThrough(t *testing.T) {
	boom := errors.New("storage down")
	stub := &stubLedger{err: boom}
	logger := &captureLogger{}
	wrapped := Wrap(stub, logger)
	ctx := context.Background()

	_, err := wrapped.RecordClose(ctx, &domain.ClosedTrade{ID: "T1"})
	assert.ErrorIs(t, err, boom)

	_, err = wrapped.AmendClose(ctx, "T1", &domain.Correction{})
	assert.ErrorIs(t, err, boom)

	_, err = wrapped.GetClose(ctx, "T1")
	assert.ErrorIs(t, err, boom)

	_, err = wrapped.ListClosesInRange(ctx, ports.RangeQuery{})
	assert.ErrorIs(t, err, boom)

	_, err = wrapped.Amendments(ctx, "T1")
	assert.ErrorIs(t, err, boom)

	assert.Contains(t, logger.errorMsgs, "RecordClose failed")
	assert.Contains(t, logger.errorMsgs, "AmendClose failed")
	assert.Contains(t, logger.errorMsgs, "ListClosesInRange failed")
	assert.Empty(t, logger.infoMsgs)
}
