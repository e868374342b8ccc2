package investigate

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/leadflowhq/leadflow/internal/webhook"
)

const (
	DefaultOfficer = "Joseph Wright"
	DefaultCaseID  = "27594"
)

// Analyzer writes a plain text report of one officer's feed entries,
// flagging whether a particular case id shows up.
type Analyzer struct {
	Officer string
	CaseID  string
}

func New() *Analyzer {
	return &Analyzer{Officer: DefaultOfficer, CaseID: DefaultCaseID}
}

func (a *Analyzer) WriteReport(w io.Writer, events []webhook.Event) error {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		return err
	}

	type reportEntry struct {
		timestamp string
		data      webhook.EventData
	}

	var entries []reportEntry
	caseFound := false

	for _, entry := range events {
		if entry.Data.SetOfficerName != a.Officer {
			continue
		}
		ts, err := webhook.ParseTimestamp(entry.Timestamp)
		if err != nil {
			return fmt.Errorf("parsing timestamp %q: %w", entry.Timestamp, err)
		}
		if entry.Data.CaseID == a.CaseID {
			caseFound = true
			slog.Debug("Found case id for officer", "case_id", a.CaseID, "officer", a.Officer)
		}
		entries = append(entries, reportEntry{
			timestamp: ts.In(loc).Format("2006-01-02 15:04:05 MST"),
			data:      entry.Data,
		})
	}

	fmt.Fprintf(w, "\n%s's Webhook Data Analysis:\n", a.Officer)
	fmt.Fprintf(w, "Total entries found: %d\n", len(entries))

	if !caseFound {
		fmt.Fprintf(w, "\nWARNING: Case ID %s was not found in the webhook data\n", a.CaseID)
	}

	fmt.Fprintf(w, "\nDetailed entries:\n")
	for _, e := range entries {
		fmt.Fprintf(w, "\nTimestamp: %s\n", e.timestamp)
		fmt.Fprintf(w, "Case ID: %s\n", orDefault(e.data.CaseID, "Not specified"))
		fmt.Fprintf(w, "Lead Sales: %s\n", orDefault(e.data.Leadsales, "no"))
		fmt.Fprintf(w, "Payment Amount: %s\n", orDefault(e.data.Paymentamount, "0"))
		fmt.Fprintf(w, "Lead Source: %s\n", e.data.Leadsource)
		fmt.Fprintf(w, "Opener Name: %s\n", e.data.OpenerName)

		if e.data.CaseID == a.CaseID {
			raw, err := json.MarshalIndent(e.data, "", "  ")
			if err == nil {
				fmt.Fprintf(w, "\nDEBUG INFO FOR CASE %s:\n", a.CaseID)
				fmt.Fprintf(w, "Raw webhook data:\n%s\n", raw)
			}
		}
		fmt.Fprintln(w, strings.Repeat("-", 50))
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
