package binancefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"tradeledger/internal/domain"
	"tradeledger/internal/ports"
)

// Source names this feed in archive rows.
const Source = "binance-futures"

// liquidationOrderType is the order type Binance stamps on forced closes.
// It only ever appears on the stream, so the client library does not define
// a constant for it.
const liquidationOrderType = "LIQUIDATION"

// Event is the decoded envelope of one user-data payload: its type plus,
// for order events, the normalized order update.
type Event struct {
	Type   string
	Symbol string
	Time   time.Time
	Order  *OrderUpdate // nil unless Type is ORDER_TRADE_UPDATE
}

// OrderUpdate is the normalized view of one ORDER_TRADE_UPDATE payload.
// String-encoded decimals are parsed; raw exchange enums stay strings.
type OrderUpdate struct {
	Symbol         string
	OrderSide      string // BUY or SELL
	PositionSide   string // LONG, SHORT or BOTH (one-way mode)
	Status         string // NEW, CANCELED, FILLED, ...
	OrderType      string // original order type, survives trigger conversion
	ReduceOnly     bool
	CloseAll       bool    // close-position flag on trigger orders
	Price          float64 // limit price, 0 for market orders
	StopPrice      float64 // trigger price for stop/take orders
	Quantity       float64 // original order quantity
	FilledQty      float64 // quantity filled by this event
	TotalFilledQty float64 // accumulated filled quantity on the order
	FillPrice      float64 // price of this fill
	AvgPrice       float64 // average fill price so far
	TradeID        int64   // exchange trade ID of the fill, 0 before any fill
	EventTime      time.Time
	TradeTime      time.Time
}

// Decoder turns raw Binance futures user-data payloads into Events.
type Decoder struct {
	logger ports.Logger
}

// NewDecoder creates a new decoder instance.
func NewDecoder(logger ports.Logger) *Decoder {
	return &Decoder{logger: logger}
}

// Decode parses one raw payload. Payloads that are valid user-data events
// of a type other than ORDER_TRADE_UPDATE come back with a nil Order; the
// caller archives and moves on.
func (d *Decoder) Decode(ctx context.Context, payload []byte) (*Event, error) {
	var raw futures.WsUserDataEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("user data event: %v: %w", err, ports.ErrMalformedEvent)
	}
	if raw.Event == "" {
		return nil, fmt.Errorf("user data event has no type: %w", ports.ErrMalformedEvent)
	}

	ev := &Event{
		Type: string(raw.Event),
		Time: time.UnixMilli(raw.Time),
	}
	if raw.Event != futures.UserDataEventTypeOrderTradeUpdate {
		return ev, nil
	}

	o := raw.OrderTradeUpdate
	u := &OrderUpdate{
		Symbol:       o.Symbol,
		OrderSide:    string(o.Side),
		PositionSide: string(o.PositionSide),
		Status:       string(o.Status),
		OrderType:    string(o.OriginalType),
		ReduceOnly:   o.IsReduceOnly,
		CloseAll:     o.IsClosingPosition,
		TradeID:      o.TradeID,
		EventTime:    time.UnixMilli(raw.Time),
		TradeTime:    time.UnixMilli(o.TradeTime),
	}

	var err error
	if u.Price, err = parseDecimal(o.OriginalPrice, "p"); err != nil {
		return nil, err
	}
	if u.StopPrice, err = parseDecimal(o.StopPrice, "sp"); err != nil {
		return nil, err
	}
	if u.Quantity, err = parseDecimal(o.OriginalQty, "q"); err != nil {
		return nil, err
	}
	if u.FilledQty, err = parseDecimal(o.LastFilledQty, "l"); err != nil {
		return nil, err
	}
	if u.TotalFilledQty, err = parseDecimal(o.AccumulatedFilledQty, "z"); err != nil {
		return nil, err
	}
	if u.FillPrice, err = parseDecimal(o.LastFilledPrice, "L"); err != nil {
		return nil, err
	}
	if u.AvgPrice, err = parseDecimal(o.AveragePrice, "ap"); err != nil {
		return nil, err
	}

	d.logger.Debug(ctx, "Order update decoded", map[string]interface{}{
		"symbol":     u.Symbol,
		"status":     u.Status,
		"orderType":  u.OrderType,
		"reduceOnly": u.ReduceOnly,
	})
	ev.Symbol = o.Symbol
	ev.Order = u
	return ev, nil
}

// parseDecimal parses one of the exchange's string-encoded numbers. Empty
// strings read as 0; the stream omits fields that do not apply.
func parseDecimal(s, field string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("order update field %q value %q: %w", field, s, ports.ErrMalformedEvent)
	}
	return f, nil
}

// Direction resolves which position the order belongs to. Hedge-mode
// payloads carry it explicitly; one-way payloads derive it from the order
// side, flipped for closing orders.
func (u OrderUpdate) Direction() domain.Side {
	switch domain.Side(u.PositionSide) {
	case domain.Long, domain.Short:
		return domain.Side(u.PositionSide)
	}
	if u.OrderSide == string(futures.SideTypeBuy) {
		if u.Closes() {
			return domain.Short
		}
		return domain.Long
	}
	if u.Closes() {
		return domain.Long
	}
	return domain.Short
}

// Closes reports whether a fill of this order reduces a position.
func (u OrderUpdate) Closes() bool {
	return u.ReduceOnly || u.CloseAll
}

// Filled reports whether this event is a fill (partial or final).
func (u OrderUpdate) Filled() bool {
	return u.Status == string(futures.OrderStatusTypeFilled) ||
		u.Status == string(futures.OrderStatusTypePartiallyFilled)
}

// IsNew reports whether the event announces order placement.
func (u OrderUpdate) IsNew() bool {
	return u.Status == string(futures.OrderStatusTypeNew)
}

// Canceled reports whether the order left the book without filling.
func (u OrderUpdate) Canceled() bool {
	return u.Status == string(futures.OrderStatusTypeCanceled) ||
		u.Status == string(futures.OrderStatusTypeExpired)
}

// IsChildTrigger reports whether the order is a protective child order
// (stop-loss or take-profit family) rather than an entry.
func (u OrderUpdate) IsChildTrigger() bool {
	return strings.Contains(u.OrderType, "STOP") || strings.Contains(u.OrderType, "TAKE_PROFIT")
}

// IsTakeProfit reports whether the order belongs to the take-profit family.
func (u OrderUpdate) IsTakeProfit() bool {
	return strings.Contains(u.OrderType, "TAKE_PROFIT")
}

// CloseReason maps the order type that produced a fill to a ledger reason.
func (u OrderUpdate) CloseReason() domain.CloseReason {
	switch {
	case u.OrderType == liquidationOrderType:
		return domain.ReasonLiquidation
	case u.IsTakeProfit():
		return domain.ReasonTake
	case strings.Contains(u.OrderType, "STOP"):
		return domain.ReasonStop
	default:
		return domain.ReasonMarket
	}
}

// LedgerID derives the ledger identifier for a fill. Exchange trade IDs are
// unique per symbol, so replaying the same fill maps to the same ID and the
// ledger's duplicate check makes the replay a no-op.
func (u OrderUpdate) LedgerID() string {
	return fmt.Sprintf("%s-%d", u.Symbol, u.TradeID)
}
