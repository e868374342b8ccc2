package enrollment

import (
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/leadflowhq/leadflow/internal/webhook"
)

// The sales team reports in Pacific time, so all month and day bucketing
// happens in that zone.
var pacific = mustLoadLocation("America/Los_Angeles")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type OfficerRevenue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Demos int     `json:"demos"`
}

type OpenerCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type InitialPaymentSummary struct {
	Count int      `json:"count"`
	Cases []string `json:"cases"`
}

// DailyEnrollments counts closed sales per weekday over the last ten
// weekdays. Chart labels run one day ahead of the sale date.
func DailyEnrollments(events []webhook.Event, now time.Time) []DailyCount {
	nowLocal := now.In(pacific)
	current := time.Date(nowLocal.Year(), nowLocal.Month(), nowLocal.Day(), 0, 0, 0, 0, pacific)

	daily := map[string]int{}
	for i := 0; i < 14; i++ {
		day := current.AddDate(0, 0, -i)
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			daily[day.AddDate(0, 0, 1).Format("2006-01-02")] = 0
		}
		if len(daily) == 10 {
			break
		}
	}

	for _, entry := range events {
		ts, err := entry.Time()
		if err != nil {
			slog.Error("Error processing webhook entry for daily enrollments", "error", err)
			continue
		}
		local := ts.In(pacific)
		dateKey := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, pacific).
			AddDate(0, 0, 1).Format("2006-01-02")
		if _, ok := daily[dateKey]; ok && strings.EqualFold(entry.Data.Leadsales, "yes") {
			daily[dateKey]++
		}
	}

	results := make([]DailyCount, 0, len(daily))
	for date, count := range daily {
		results = append(results, DailyCount{Date: date, Count: count})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Date > results[j].Date })
	return results
}

// LeadsourceData counts this month's closed sales per lead source.
func LeadsourceData(events []webhook.Event, now time.Time) map[string]int {
	currentMonth := now.In(pacific).Month()
	sales := map[string]int{}

	for _, entry := range events {
		ts, err := entry.Time()
		if err != nil {
			slog.Error("Error processing webhook entry for lead source", "error", err)
			continue
		}
		if ts.In(pacific).Month() != currentMonth {
			continue
		}
		if strings.EqualFold(entry.Data.Leadsales, "yes") && entry.Data.Leadsource != "" {
			sales[entry.Data.Leadsource]++
		}
	}
	return sales
}

// AdminMonthlyRevenue totals this month's revenue and demo count per
// officer, in first-seen order.
func AdminMonthlyRevenue(events []webhook.Event, now time.Time) []OfficerRevenue {
	currentMonth := now.In(pacific).Month()
	byName := map[string]int{}
	var officers []OfficerRevenue

	for _, entry := range events {
		ts, err := entry.Time()
		if err != nil {
			slog.Error("Error processing webhook entry for monthly sales", "error", err)
			continue
		}
		if ts.In(pacific).Month() != currentMonth {
			continue
		}

		name := entry.Data.SetOfficerName
		idx, ok := byName[name]
		if !ok {
			idx = len(officers)
			byName[name] = idx
			officers = append(officers, OfficerRevenue{Name: name})
		}

		if strings.EqualFold(entry.Data.Leadsales, "yes") {
			officers[idx].Demos++
		}
		if entry.Data.Paymentamount != "" {
			amount, err := webhook.ParseAmount(entry.Data.Paymentamount)
			if err != nil {
				slog.Warn("Invalid payment amount", "amount", entry.Data.Paymentamount)
			} else {
				officers[idx].Value += amount
			}
		}
	}
	return officers
}

// MonthlyRevenueEnrollments totals this month's revenue per officer with
// the demo count taken from deduplicated initial payments.
func MonthlyRevenueEnrollments(events []webhook.Event, now time.Time) []OfficerRevenue {
	currentMonth := now.In(pacific).Month()
	byName := map[string]int{}
	var officers []OfficerRevenue

	for _, entry := range events {
		ts, err := entry.Time()
		if err != nil {
			slog.Error("Error processing webhook entry for monthly sales", "error", err)
			continue
		}
		if ts.In(pacific).Month() != currentMonth {
			continue
		}

		name := entry.Data.SetOfficerName
		idx, ok := byName[name]
		if !ok {
			idx = len(officers)
			byName[name] = idx
			officers = append(officers, OfficerRevenue{Name: name})
		}

		if entry.Data.Paymentamount != "" {
			amount, err := webhook.ParseAmount(entry.Data.Paymentamount)
			if err != nil {
				slog.Warn("Invalid payment amount", "amount", entry.Data.Paymentamount)
			} else {
				officers[idx].Value += amount
			}
		}
	}

	payments := InitialPayments(events, now)
	for i := range officers {
		if p, ok := payments[officers[i].Name]; ok {
			officers[i].Demos = p.Count
		}
	}
	return officers
}

// InitialPayments counts this month's initial payments per officer,
// keeping each case id once. The month check stays in the feed's own
// utc offset.
func InitialPayments(events []webhook.Event, now time.Time) map[string]InitialPaymentSummary {
	currentMonth := now.In(pacific).Month()
	payments := map[string]InitialPaymentSummary{}

	for _, entry := range events {
		if !strings.EqualFold(entry.Data.InitialPayment, "yes") {
			continue
		}
		ts, err := entry.Time()
		if err != nil {
			slog.Error("Error processing payment", "error", err)
			continue
		}
		if ts.Month() != currentMonth {
			continue
		}
		officer := entry.Data.SetOfficerName
		caseID := entry.Data.CaseID
		if officer == "" || caseID == "" {
			continue
		}

		p := payments[officer]
		if slices.Contains(p.Cases, caseID) {
			continue
		}
		p.Count++
		p.Cases = append(p.Cases, caseID)
		payments[officer] = p
	}
	return payments
}

// EnrollmentsPerOpener counts this month's closed sales per opener,
// highest first.
func EnrollmentsPerOpener(events []webhook.Event, now time.Time) []OpenerCount {
	currentMonth := now.In(pacific).Month()
	counts := map[string]int{}
	var order []string

	for _, entry := range events {
		ts, err := entry.Time()
		if err != nil {
			slog.Error("Error processing opener enrollment", "error", err)
			continue
		}
		if ts.In(pacific).Month() != currentMonth {
			continue
		}
		if !strings.EqualFold(entry.Data.Leadsales, "yes") {
			continue
		}
		opener := entry.Data.OpenerName
		if opener == "" {
			continue
		}
		if _, ok := counts[opener]; !ok {
			order = append(order, opener)
		}
		counts[opener]++
	}

	results := make([]OpenerCount, 0, len(order))
	for _, name := range order {
		results = append(results, OpenerCount{Name: name, Count: counts[name]})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Count > results[j].Count })
	return results
}
