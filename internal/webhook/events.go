package webhook

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Event is one entry in the webhook feed payload.
type Event struct {
	Timestamp string    `json:"timestamp"`
	Data      EventData `json:"data"`
}

// EventData carries the CRM fields spelled the way the feed sends them.
type EventData struct {
	SetOfficerName string `json:"SetOfficerName"`
	OpenerName     string `json:"OpenerName"`
	Leadsales      string `json:"Leadsales"`
	Leadsource     string `json:"Leadsource"`
	Paymentamount  string `json:"Paymentamount"`
	InitialPayment string `json:"InitialPayment"`
	CaseID         string `json:"CaseID"`
}

// Time parses the entry timestamp.
func (e *Event) Time() (time.Time, error) {
	return ParseTimestamp(e.Timestamp)
}

// The feed has emitted both colon and colon-less utc offsets as well as
// a trailing Z, so try the layouts in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05Z0700",
}

func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ParseAmount converts a dollar string like "$1,234.00" to its numeric
// value.
func ParseAmount(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty payment amount")
	}
	return strconv.ParseFloat(cleaned, 64)
}
