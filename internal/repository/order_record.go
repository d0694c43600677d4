package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iliyamo/restaurant-chatbot/internal/model"
)

// The sessions.current_order and orders.items columns hold a JSON array of
// order lines.  encodeLines and decodeLines are the only places that know
// about that representation; everything above the repository works with
// []model.OrderLine.

func encodeLines(lines []model.OrderLine) (string, error) {
	if lines == nil {
		lines = []model.OrderLine{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("encode order lines: %w", err)
	}
	return string(b), nil
}

func decodeLines(raw string) ([]model.OrderLine, error) {
	if raw == "" {
		return []model.OrderLine{}, nil
	}
	var lines []model.OrderLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("decode order lines: %w", err)
	}
	if lines == nil {
		lines = []model.OrderLine{}
	}
	return lines, nil
}

// dbTime scans a DATETIME column regardless of whether the driver hands it
// back as time.Time (MySQL with parseTime=true) or as text (SQLite).
type dbTime struct{ t time.Time }

var dbTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
}

func (d *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.t = v.UTC()
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	case nil:
		d.t = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported time value %T", src)
}

func (d *dbTime) parse(s string) error {
	for _, layout := range dbTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable time %q", s)
}
