package master

import "time"

// TxOption overrides one of a Transaction's fields at Execute time,
// taking priority over the Master's configured defaults.
type TxOption func(*Transaction)

func WithUnit(unit uint8) TxOption {
	return func(t *Transaction) { t.Unit = unit }
}

func WithMaxRetries(n int) TxOption {
	return func(t *Transaction) { t.MaxRetries = n }
}

func WithTimeout(d time.Duration) TxOption {
	return func(t *Transaction) { t.Timeout = d }
}

// WithInterval marks the transaction repeatable, re-executed every d
// after it reaches a terminal outcome while the connection stays open.
func WithInterval(d time.Duration) TxOption {
	return func(t *Transaction) { t.Interval = d }
}
