// Package domain provides the pipeline rules: status inference from quotes,
// projects and email signals, and the funnel KPI aggregation.
package domain

// Status is a client's sales-pipeline stage.
type Status string

const (
	StatusNew           Status = "new"
	StatusContacted     Status = "contacted"
	StatusFormSent      Status = "form_sent"
	StatusQualified     Status = "qualified"
	StatusQuoteSent     Status = "quote_sent"
	StatusQuoteAccepted Status = "quote_accepted"
	StatusNegotiation   Status = "negotiation"
	StatusInProgress    Status = "in_progress"
	StatusDelivered     Status = "delivered"
	StatusMaintenance   Status = "maintenance"
	StatusWon           Status = "won"
	StatusLost          Status = "lost"
)

// funnelOrder lists every status in the order the pipeline board shows its columns.
var funnelOrder = []Status{
	StatusNew,
	StatusContacted,
	StatusFormSent,
	StatusQualified,
	StatusQuoteSent,
	StatusQuoteAccepted,
	StatusNegotiation,
	StatusInProgress,
	StatusDelivered,
	StatusMaintenance,
	StatusWon,
	StatusLost,
}

// priorityOrder is the merge ranking used by GetMostPrioritaryStatus, most
// prioritary first. It differs from the inference rule order: lost ranks last here.
var priorityOrder = []Status{
	StatusWon,
	StatusMaintenance,
	StatusDelivered,
	StatusInProgress,
	StatusQuoteAccepted,
	StatusNegotiation,
	StatusQuoteSent,
	StatusQualified,
	StatusFormSent,
	StatusContacted,
	StatusNew,
	StatusLost,
}

var priorityRank = func() map[Status]int {
	ranks := make(map[Status]int, len(priorityOrder))
	for i, s := range priorityOrder {
		ranks[s] = i
	}
	return ranks
}()

// manualStatuses are set by an explicit user action and never replaced by
// automatic recalculation.
var manualStatuses = map[Status]bool{
	StatusLost:        true,
	StatusMaintenance: true,
}

var labels = map[Status]string{
	StatusNew:           "Nouveau",
	StatusContacted:     "Contacté",
	StatusFormSent:      "Formulaire envoyé",
	StatusQualified:     "Qualifié",
	StatusQuoteSent:     "Devis envoyé",
	StatusQuoteAccepted: "Devis accepté",
	StatusNegotiation:   "En négociation",
	StatusInProgress:    "En cours",
	StatusDelivered:     "Livré",
	StatusMaintenance:   "Maintenance",
	StatusWon:           "Gagné",
	StatusLost:          "Perdu",
}

// AllStatuses returns every status in funnel order. The slice is a copy.
func AllStatuses() []Status {
	out := make([]Status, len(funnelOrder))
	copy(out, funnelOrder)
	return out
}

// IsValid reports whether s is one of the twelve pipeline statuses.
func (s Status) IsValid() bool {
	_, ok := priorityRank[s]
	return ok
}

// IsManual reports whether s is protected from automatic recalculation.
func (s Status) IsManual() bool {
	return manualStatuses[s]
}

// ParseStatus converts raw into a Status, reporting false for unknown values.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.IsValid()
}

// PipelineStatusLabel returns the French display label for status. Unknown
// values are echoed back unchanged.
func PipelineStatusLabel(status Status) string {
	if label, ok := labels[status]; ok {
		return label
	}
	return string(status)
}
