package domain

import (
	"fmt"
	"time"
)

// MonthsInSeries is the length of the monthly potential/won series.
const MonthsInSeries = 12

var frenchShortMonths = [12]string{
	"janv.", "févr.", "mars", "avr.", "mai", "juin",
	"juil.", "août", "sept.", "oct.", "nov.", "déc.",
}

// MonthlyValue is one point of the monthly funnel series.
type MonthlyValue struct {
	// Key is the calendar month as YYYY-MM.
	Key string
	// Label is the chart axis label, e.g. "mars" or "janv. 26".
	Label     string
	Potential float64
	Won       float64
}

// KPIs is the funnel aggregate for one tenant.
type KPIs struct {
	PotentialValue     float64
	WonValue           float64
	LostValue          float64
	InNegotiationValue float64

	QuotesSent          int
	QuotesAccepted      int
	QuotesRejected      int
	QuotesInNegotiation int

	TotalContacts      int
	NewCount           int
	ContactedCount     int
	QualifiedCount     int
	QuoteSentCount     int
	QuoteAcceptedCount int
	InProgressCount    int
	DeliveredCount     int
	WonCount           int
	LostCount          int
	// ByStatus counts contacts for every status, including ones without a named field.
	ByStatus map[Status]int

	ConversionRate float64
	WinRate        float64

	MonthlyPotential []MonthlyValue
}

// CalculatePipelineKPIs aggregates funnel KPIs using the current time in UTC.
func CalculatePipelineKPIs(contacts []Client, quotes []Quote, projects []Project) KPIs {
	return CalculatePipelineKPIsAt(contacts, quotes, projects, time.Now().UTC())
}

// CalculatePipelineKPIsAt aggregates funnel KPIs. The monthly series ends at the
// calendar month of now, in now's location. Invoices are ignored for every
// monetary figure. Projects are accepted for signature symmetry with status
// inference and do not contribute to any KPI.
func CalculatePipelineKPIsAt(contacts []Client, quotes []Quote, _ []Project, now time.Time) KPIs {
	var k KPIs

	quoteOnly := make([]Quote, 0, len(quotes))
	for _, q := range quotes {
		if q.IsQuote() {
			quoteOnly = append(quoteOnly, q)
		}
	}

	for _, q := range quoteOnly {
		switch q.QuoteStatus {
		case QuoteStatusSent:
			k.QuotesSent++
			k.PotentialValue += q.Amount()
		case QuoteStatusAccepted:
			k.QuotesAccepted++
			k.WonValue += q.Amount()
		case QuoteStatusRejected:
			k.QuotesRejected++
			k.LostValue += q.Amount()
		case QuoteStatusNegotiation:
			k.QuotesInNegotiation++
			k.InNegotiationValue += q.Amount()
		}
	}

	k.ByStatus = make(map[Status]int, len(funnelOrder))
	for _, s := range funnelOrder {
		k.ByStatus[s] = 0
	}
	for _, c := range contacts {
		status := StatusNew
		if c.PipelineStatus != nil && *c.PipelineStatus != "" {
			status = *c.PipelineStatus
		}
		k.ByStatus[status]++
	}
	k.TotalContacts = len(contacts)
	k.NewCount = k.ByStatus[StatusNew]
	k.ContactedCount = k.ByStatus[StatusContacted]
	k.QualifiedCount = k.ByStatus[StatusQualified]
	k.QuoteSentCount = k.ByStatus[StatusQuoteSent]
	k.QuoteAcceptedCount = k.ByStatus[StatusQuoteAccepted]
	k.InProgressCount = k.ByStatus[StatusInProgress]
	k.DeliveredCount = k.ByStatus[StatusDelivered]
	k.WonCount = k.ByStatus[StatusWon]
	k.LostCount = k.ByStatus[StatusLost]

	if decided := k.QuotesSent + k.QuotesAccepted + k.QuotesRejected; decided > 0 {
		k.ConversionRate = float64(k.QuotesAccepted) / float64(decided) * 100
	}
	if k.TotalContacts > 0 {
		k.WinRate = float64(k.WonCount) / float64(k.TotalContacts) * 100
	}

	k.MonthlyPotential = monthlySeries(quoteOnly, now)
	return k
}

// monthlySeries buckets dated quotes into the twelve calendar months ending at
// now's month, oldest first. Quote dates are calendar dates and are bucketed by
// their own year and month.
func monthlySeries(quotes []Quote, now time.Time) []MonthlyValue {
	series := make([]MonthlyValue, MonthsInSeries)
	index := make(map[string]int, MonthsInSeries)

	for i := 0; i < MonthsInSeries; i++ {
		month := time.Date(now.Year(), now.Month()-time.Month(MonthsInSeries-1-i), 1, 0, 0, 0, 0, now.Location())
		key := monthKey(month.Year(), month.Month())
		series[i] = MonthlyValue{
			Key:   key,
			Label: monthLabel(month, i == MonthsInSeries-1),
		}
		index[key] = i
	}

	for _, q := range quotes {
		if q.Date == nil {
			continue
		}
		i, ok := index[monthKey(q.Date.Year(), q.Date.Month())]
		if !ok {
			continue
		}
		switch q.QuoteStatus {
		case QuoteStatusSent, QuoteStatusNegotiation:
			series[i].Potential += q.Amount()
		case QuoteStatusAccepted:
			series[i].Won += q.Amount()
		}
	}

	return series
}

func monthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// monthLabel adds a two-digit year to January and to the most recent month only.
func monthLabel(month time.Time, last bool) string {
	name := frenchShortMonths[month.Month()-1]
	if month.Month() == time.January || last {
		return fmt.Sprintf("%s %02d", name, month.Year()%100)
	}
	return name
}
