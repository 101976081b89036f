package transport

import (
	"eclipse_backend/internal/pipeline/domain"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// RecordActionRequest is the body of POST /pipeline/clients/:id/actions
type RecordActionRequest struct {
	Action string `json:"action" validate:"required,pipeline_action"`
}

// SetStatusRequest is the body of PUT /pipeline/clients/:id/status
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,pipeline_status"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// StatusLabelResponse is one entry of the status list.
type StatusLabelResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ClientStatusResponse reports the stored status of a client after a write.
type ClientStatusResponse struct {
	ClientID       string `json:"clientId"`
	PreviousStatus string `json:"previousStatus,omitempty"`
	Status         string `json:"status"`
	Label          string `json:"label"`
	Updated        bool   `json:"updated"`
	Skipped        bool   `json:"skipped,omitempty"`
}

// SyncReportResponse summarizes a tenant-wide resync.
type SyncReportResponse struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// SyncQueuedResponse acknowledges an asynchronous resync.
type SyncQueuedResponse struct {
	Queued bool `json:"queued"`
}

// MonthlyValueResponse is one point of the monthly chart.
type MonthlyValueResponse struct {
	Month     string  `json:"month"`
	Key       string  `json:"key"`
	Potential float64 `json:"potential"`
	Won       float64 `json:"won"`
}

// KPIResponse is the funnel aggregate for the dashboard.
type KPIResponse struct {
	PotentialValue      float64                `json:"potentialValue"`
	WonValue            float64                `json:"wonValue"`
	LostValue           float64                `json:"lostValue"`
	InNegotiationValue  float64                `json:"inNegotiationValue"`
	QuotesSent          int                    `json:"quotesSent"`
	QuotesAccepted      int                    `json:"quotesAccepted"`
	QuotesRejected      int                    `json:"quotesRejected"`
	QuotesInNegotiation int                    `json:"quotesInNegotiation"`
	TotalContacts       int                    `json:"totalContacts"`
	NewCount            int                    `json:"newCount"`
	ContactedCount      int                    `json:"contactedCount"`
	QualifiedCount      int                    `json:"qualifiedCount"`
	QuoteSentCount      int                    `json:"quoteSentCount"`
	QuoteAcceptedCount  int                    `json:"quoteAcceptedCount"`
	InProgressCount     int                    `json:"inProgressCount"`
	DeliveredCount      int                    `json:"deliveredCount"`
	WonCount            int                    `json:"wonCount"`
	LostCount           int                    `json:"lostCount"`
	ByStatus            map[string]int         `json:"byStatus"`
	ConversionRate      float64                `json:"conversionRate"`
	WinRate             float64                `json:"winRate"`
	MonthlyPotential    []MonthlyValueResponse `json:"monthlyPotential"`
}

// ToKPIResponse maps the domain aggregate to its wire form.
func ToKPIResponse(k domain.KPIs) KPIResponse {
	byStatus := make(map[string]int, len(k.ByStatus))
	for status, count := range k.ByStatus {
		byStatus[string(status)] = count
	}

	months := make([]MonthlyValueResponse, len(k.MonthlyPotential))
	for i, m := range k.MonthlyPotential {
		months[i] = MonthlyValueResponse{
			Month:     m.Label,
			Key:       m.Key,
			Potential: m.Potential,
			Won:       m.Won,
		}
	}

	return KPIResponse{
		PotentialValue:      k.PotentialValue,
		WonValue:            k.WonValue,
		LostValue:           k.LostValue,
		InNegotiationValue:  k.InNegotiationValue,
		QuotesSent:          k.QuotesSent,
		QuotesAccepted:      k.QuotesAccepted,
		QuotesRejected:      k.QuotesRejected,
		QuotesInNegotiation: k.QuotesInNegotiation,
		TotalContacts:       k.TotalContacts,
		NewCount:            k.NewCount,
		ContactedCount:      k.ContactedCount,
		QualifiedCount:      k.QualifiedCount,
		QuoteSentCount:      k.QuoteSentCount,
		QuoteAcceptedCount:  k.QuoteAcceptedCount,
		InProgressCount:     k.InProgressCount,
		DeliveredCount:      k.DeliveredCount,
		WonCount:            k.WonCount,
		LostCount:           k.LostCount,
		ByStatus:            byStatus,
		ConversionRate:      k.ConversionRate,
		WinRate:             k.WinRate,
		MonthlyPotential:    months,
	}
}
