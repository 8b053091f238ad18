package types

import "time"

// Alert condition directions.
const (
	ConditionAbove = "above"
	ConditionBelow = "below"
)

type Alert struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Instrument string    `json:"instrument"`
	Condition  string    `json:"condition"` // "above" or "below"
	Price      float64   `json:"price"`
	Triggered  bool      `json:"triggered"`
	CreatedAt  time.Time `json:"created_at"`
}

// ValidCondition reports whether s is a recognized alert condition.
func ValidCondition(s string) bool {
	return s == ConditionAbove || s == ConditionBelow
}
