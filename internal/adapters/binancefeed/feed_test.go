package binancefeed

import (
	"context"
	"testing"
	"time"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

const reduceOnlyFill = `{
	"e": "ORDER_TRADE_UPDATE",
	"E": 1700000000123,
	"T": 1700000000120,
	"o": {
		"s": "ETHUSDT", "c": "web_x1", "S": "SELL", "o": "MARKET", "f": "GTC",
		"q": "1.5", "p": "0", "ap": "110.05", "sp": "0",
		"x": "TRADE", "X": "FILLED", "i": 123456,
		"l": "1.5", "z": "1.5", "L": "110.10",
		"N": "USDT", "n": "0.05", "T": 1700000000120, "t": 987654,
		"b": "0", "a": "0", "m": false, "R": true,
		"wt": "CONTRACT_PRICE", "ot": "MARKET", "ps": "BOTH", "cp": false, "rp": "15.00"
	}
}`

func TestDecoderDecode_OrderTradeUpdate(t *testing.T) {
	d := NewDecoder(noopLogger{})

	ev, err := d.Decode(context.Background(), []byte(reduceOnlyFill))
	require.NoError(t, err)
	require.NotNil(t, ev.Order)

	assert.Equal(t, "ORDER_TRADE_UPDATE", ev.Type)
	assert.Equal(t, "ETHUSDT", ev.Symbol)
	assert.True(t, ev.Time.Equal(time.UnixMilli(1700000000123)))

	u := ev.Order
	assert.Equal(t, "ETHUSDT", u.Symbol)
	assert.Equal(t, "SELL", u.OrderSide)
	assert.Equal(t, "BOTH", u.PositionSide)
	assert.Equal(t, "FILLED", u.Status)
	assert.Equal(t, "MARKET", u.OrderType)
	assert.True(t, u.ReduceOnly)
	assert.False(t, u.CloseAll)
	assert.Equal(t, 1.5, u.Quantity)
	assert.Equal(t, 1.5, u.FilledQty)
	assert.Equal(t, 1.5, u.TotalFilledQty)
	assert.Equal(t, 110.10, u.FillPrice)
	assert.Equal(t, 110.05, u.AvgPrice)
	assert.Equal(t, int64(987654), u.TradeID)
	assert.True(t, u.TradeTime.Equal(time.UnixMilli(1700000000120)))

	assert.True(t, u.Closes())
	assert.True(t, u.Filled())
	assert.Equal(t, domain.Long, u.Direction())
	assert.Equal(t, domain.ReasonMarket, u.CloseReason())
	assert.Equal(t, "ETHUSDT-987654", u.LedgerID())
}

func TestDecoderDecode_NonOrderEvent(t *testing.T) {
	d := NewDecoder(noopLogger{})

	ev, err := d.Decode(context.Background(), []byte(`{"e":"ACCOUNT_UPDATE","E":1700000000500,"T":1700000000499,"a":{"m":"ORDER","B":[],"P":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, "ACCOUNT_UPDATE", ev.Type)
	assert.Nil(t, ev.Order)
}

func TestDecoderDecode_Malformed(t *testing.T) {
	d := NewDecoder(noopLogger{})

	_, err := d.Decode(context.Background(), []byte(`{"e": "ORDER_TRADE_UPDATE", `))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrMalformedEvent)

	_, err = d.Decode(context.Background(), []byte(`{"E":1700000000500}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrMalformedEvent)
}

func TestOrderUpdateDirection(t *testing.T) {
	tests := []struct {
		name string
		u    OrderUpdate
		want domain.Side
	}{
		{name: "hedge mode long", u: OrderUpdate{PositionSide: "LONG", OrderSide: "SELL", ReduceOnly: true}, want: domain.Long},
		{name: "hedge mode short", u: OrderUpdate{PositionSide: "SHORT", OrderSide: "SELL"}, want: domain.Short},
		{name: "one-way buy entry", u: OrderUpdate{PositionSide: "BOTH", OrderSide: "BUY"}, want: domain.Long},
		{name: "one-way sell entry", u: OrderUpdate{PositionSide: "BOTH", OrderSide: "SELL"}, want: domain.Short},
		{name: "one-way sell reduce closes long", u: OrderUpdate{PositionSide: "BOTH", OrderSide: "SELL", ReduceOnly: true}, want: domain.Long},
		{name: "one-way buy reduce closes short", u: OrderUpdate{PositionSide: "BOTH", OrderSide: "BUY", ReduceOnly: true}, want: domain.Short},
		{name: "close-all flag counts as closing", u: OrderUpdate{PositionSide: "BOTH", OrderSide: "SELL", CloseAll: true}, want: domain.Long},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.u.Direction())
		})
	}
}

func TestOrderUpdateCloseReason(t *testing.T) {
	tests := []struct {
		orderType string
		want      domain.CloseReason
	}{
		{orderType: "MARKET", want: domain.ReasonMarket},
		{orderType: "LIMIT", want: domain.ReasonMarket},
		{orderType: "STOP", want: domain.ReasonStop},
		{orderType: "STOP_MARKET", want: domain.ReasonStop},
		{orderType: "TRAILING_STOP_MARKET", want: domain.ReasonStop},
		{orderType: "TAKE_PROFIT", want: domain.ReasonTake},
		{orderType: "TAKE_PROFIT_MARKET", want: domain.ReasonTake},
		{orderType: "LIQUIDATION", want: domain.ReasonLiquidation},
	}
	for _, tt := range tests {
		t.Run(tt.orderType, func(t *testing.T) {
			u := OrderUpdate{OrderType: tt.orderType}
			assert.Equal(t, tt.want, u.CloseReason())
		})
	}
}

func TestOrderUpdateIsChildTrigger(t *testing.T) {
	assert.True(t, OrderUpdate{OrderType: "STOP_MARKET"}.IsChildTrigger())
	assert.True(t, OrderUpdate{OrderType: "TAKE_PROFIT"}.IsChildTrigger())
	assert.False(t, OrderUpdate{OrderType: "MARKET"}.IsChildTrigger())
	assert.False(t, OrderUpdate{OrderType: "LIMIT"}.IsChildTrigger())
}
