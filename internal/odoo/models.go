package odoo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// PartnerModel is the Odoo model holding contacts.
const PartnerModel = "res.partner"

// PartnerFields is the projection requested from search_read.
var PartnerFields = []string{"name", "write_date", "email"}

// Odoo serialises datetimes as naive UTC with second resolution.
const datetimeLayout = "2006-01-02 15:04:05"

// Credentials authenticate against one Odoo database.
type Credentials struct {
	Database string
	Username string
	Secret   string
}

// LogValue keeps the secret out of logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("database", c.Database),
		slog.String("username", c.Username),
		slog.String("secret", "[REDACTED]"),
	)
}

// Session is the result of a successful authenticate call. execute_kw needs
// the credentials again on every call, so the session carries them.
type Session struct {
	UID         int64
	Credentials Credentials
}

// Partner is one raw res.partner row as returned by search_read.
type Partner struct {
	ID        int64 `json:"id"`
	Name      Text  `json:"name"`
	Email     Text  `json:"email"`
	WriteDate Text  `json:"write_date"`
}

// Text is a char field. Odoo encodes empty char fields as false.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "false", "null":
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("decode text field: %w", err)
	}
	*t = Text(s)
	return nil
}

func (t Text) String() string {
	return string(t)
}

// FormatDatetime renders t the way Odoo expects in domain filters.
func FormatDatetime(t time.Time) string {
	return t.UTC().Format(datetimeLayout)
}

var acceptedLayouts = []string{
	datetimeLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDatetime parses an Odoo datetime into UTC, truncated to the second.
func ParseDatetime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", raw)
}
