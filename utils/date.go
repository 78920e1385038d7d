package utils

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// CustomDate stores a calendar day without a time component.
type CustomDate struct {
	time.Time
}

func NewCustomDate(t time.Time) CustomDate {
	y, m, d := t.Date()
	return CustomDate{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d *CustomDate) UnmarshalJSON(data []byte) error {
	str := string(data)
	if str == `null` || str == `""` {
		*d = CustomDate{}
		return nil
	}
	str = strings.Trim(str, `"`)

	t, err := ParseDate(str)
	if err != nil {
		return err
	}
	*d = t
	return nil
}

func (d CustomDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d CustomDate) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time.Format(DateLayout), nil
}

func (d *CustomDate) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = CustomDate{}
		return nil
	case time.Time:
		*d = NewCustomDate(v)
		return nil
	case string:
		t, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = t
		return nil
	case []byte:
		t, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = t
		return nil
	default:
		return fmt.Errorf("unsupported scan type for CustomDate: %T", value)
	}
}

func (d CustomDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func ParseDate(s string) (CustomDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return CustomDate{}, fmt.Errorf("invalid date format: %s", s)
	}
	return CustomDate{t}, nil
}

var windowLayouts = []string{"3:04 PM", "3:04PM", "3 PM", "3PM", "15:04"}

// ParseWindowStart extracts the start of a window label such as "9:00 AM - 11:00 AM"
// and returns it as "HH:MM".
func ParseWindowStart(window string) (string, error) {
	start := window
	for _, sep := range []string{" - ", "-", "–", " to "} {
		if i := strings.Index(window, sep); i > 0 {
			start = window[:i]
			break
		}
	}
	start = strings.ToUpper(strings.TrimSpace(start))
	for _, layout := range windowLayouts {
		if t, err := time.Parse(layout, start); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid delivery window: %q", window)
}
