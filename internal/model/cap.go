package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Cap is a resource ceiling on a plan. The zero value is Limited(0).
type Cap struct {
	limit     int64
	unlimited bool
}

// Unlimited returns a cap with no ceiling.
func Unlimited() Cap { return Cap{unlimited: true} }

// Limited returns a cap of n. Negative values are the legacy "-1 means unlimited" encoding.
func Limited(n int64) Cap {
	if n < 0 {
		return Unlimited()
	}
	return Cap{limit: n}
}

// ParseCap coerces a stored cap value. Empty strings, "null" and "unlimited" are unlimited.
func ParseCap(s string) (Cap, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "unlimited":
		return Unlimited(), nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Cap{}, fmt.Errorf("parse cap %q: %w", s, err)
	}
	return Limited(n), nil
}

func (c Cap) IsUnlimited() bool { return c.unlimited }

// Limit returns the numeric ceiling and false when the cap is unlimited.
func (c Cap) Limit() (int64, bool) {
	if c.unlimited {
		return 0, false
	}
	return c.limit, true
}

// Remaining returns max(0, cap-used), or Unlimited.
func (c Cap) Remaining(used int64) Cap {
	if c.unlimited {
		return c
	}
	if used >= c.limit {
		return Limited(0)
	}
	return Limited(c.limit - used)
}

// Reached reports whether used has hit the ceiling.
func (c Cap) Reached(used int64) bool {
	return !c.unlimited && used >= c.limit
}

func (c Cap) String() string {
	if c.unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(c.limit, 10)
}

// Scan implements sql.Scanner for nullable integer or text columns.
func (c *Cap) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = Unlimited()
	case int64:
		*c = Limited(v)
	case int32:
		*c = Limited(int64(v))
	case int:
		*c = Limited(int64(v))
	case float64:
		*c = Limited(int64(v))
	case string:
		parsed, err := ParseCap(v)
		if err != nil {
			return err
		}
		*c = parsed
	case []byte:
		parsed, err := ParseCap(string(v))
		if err != nil {
			return err
		}
		*c = parsed
	default:
		return fmt.Errorf("cannot scan %T into Cap", src)
	}
	return nil
}

// Value implements driver.Valuer; unlimited is stored as NULL.
func (c Cap) Value() (driver.Value, error) {
	if c.unlimited {
		return nil, nil
	}
	return c.limit, nil
}

// MarshalJSON encodes unlimited as null.
func (c Cap) MarshalJSON() ([]byte, error) {
	if c.unlimited {
		return []byte("null"), nil
	}
	return json.Marshal(c.limit)
}

func (c *Cap) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*c = Unlimited()
	case float64:
		*c = Limited(int64(v))
	case string:
		parsed, err := ParseCap(v)
		if err != nil {
			return err
		}
		*c = parsed
	default:
		return fmt.Errorf("cannot decode %s into Cap", string(data))
	}
	return nil
}
