package domain

import "strings"

// Side represents the direction of the position a closed trade exited.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

// ParseSide converts a string to a Side. The second return value reports
// whether the input named a known side.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToUpper(strings.TrimSpace(s))) {
	case Long:
		return Long, true
	case Short:
		return Short, true
	}
	return "", false
}

// CloseReason indicates why a position was closed. The set is closed:
// values outside it are rejected at the boundary, never stored.
type CloseReason string

const (
	ReasonMarket      CloseReason = "market"      // manual or strategy-based market close
	ReasonStop        CloseReason = "stop"        // stop-loss triggered
	ReasonTake        CloseReason = "take"        // take-profit triggered
	ReasonLiquidation CloseReason = "liquidation" // forced liquidation
	ReasonOther       CloseReason = "other"
)

// ReasonDefault backfills rows that predate the reason column. It is never
// applied implicitly to new writes.
const ReasonDefault = ReasonMarket

// Valid reports whether r is one of the enumerated close reasons.
func (r CloseReason) Valid() bool {
	switch r {
	case ReasonMarket, ReasonStop, ReasonTake, ReasonLiquidation, ReasonOther:
		return true
	}
	return false
}

// ParseCloseReason converts a string to a CloseReason. The second return
// value reports whether the input named a known reason.
func ParseCloseReason(s string) (CloseReason, bool) {
	r := CloseReason(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}
