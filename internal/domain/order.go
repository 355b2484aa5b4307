package domain

// OrderSide is the direction of a trade hand-off.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderRequest is the fire-and-forget hand-off to the external trading
// engine. The core never observes fills or order state.
type OrderRequest struct {
	OrderID       string // uuid
	AccountID     string
	AssetID       string
	Side          OrderSide
	Quantity      int64
	SubmittedAtMs int64
}
