package domain

import (
	"slices"
	"time"
)

// DocumentTypeQuote marks a facture record that is a quote rather than an invoice.
const DocumentTypeQuote = "quote"

// Quote status values. Stored as open strings: "negotiation" is used by the
// data without being part of the declared quote status set.
const (
	QuoteStatusDraft       = "draft"
	QuoteStatusSent        = "sent"
	QuoteStatusAccepted    = "accepted"
	QuoteStatusRejected    = "rejected"
	QuoteStatusNegotiation = "negotiation"
)

// Project status values relevant to inference. "development" is an undeclared
// alias of in_progress found in the data.
const (
	ProjectStatusPlanning    = "planning"
	ProjectStatusInProgress  = "in_progress"
	ProjectStatusDevelopment = "development"
	ProjectStatusCompleted   = "completed"
	ProjectStatusArchived    = "archived"
)

// Client is the pipeline view of a client record.
type Client struct {
	DocumentID     string
	PipelineStatus *Status
}

// Quote is a facture record. The owning client may be referenced through either
// ClientID or ClientDocumentID depending on which write path created the row.
type Quote struct {
	DocumentID       string
	DocumentType     string
	QuoteStatus      string
	Number           *float64
	Date             *time.Time
	ClientID         string
	ClientDocumentID string
}

// ClientIDs returns the distinct non-empty client references of q, primary
// reference first. A quote belongs to every client listed.
func (q Quote) ClientIDs() []string {
	ids := make([]string, 0, 2)
	for _, ref := range []string{q.ClientID, q.ClientDocumentID} {
		if ref == "" || slices.Contains(ids, ref) {
			continue
		}
		ids = append(ids, ref)
	}
	return ids
}

// BelongsTo reports whether any client reference of q matches clientID.
func (q Quote) BelongsTo(clientID string) bool {
	return clientID != "" && slices.Contains(q.ClientIDs(), clientID)
}

// IsQuote reports whether q is a quote (as opposed to an invoice).
func (q Quote) IsQuote() bool {
	return q.DocumentType == DocumentTypeQuote
}

// Amount returns the monetary amount, zero when missing.
func (q Quote) Amount() float64 {
	if q.Number == nil {
		return 0
	}
	return *q.Number
}

// Project is the pipeline view of a project record.
type Project struct {
	DocumentID    string
	ProjectStatus string
	ClientID      string
}

// BelongsTo reports whether p references clientID.
func (p Project) BelongsTo(clientID string) bool {
	return clientID != "" && p.ClientID == clientID
}

// CalculateClientPipelineStatus derives the pipeline status of client from the
// tenant's quotes and projects. Rules are evaluated in order and the first match
// wins; project signals dominate quote signals, which dominate the email signal.
func CalculateClientPipelineStatus(client Client, quotes []Quote, projects []Project, hasEmailsSent bool) Status {
	var clientQuotes []Quote
	for _, q := range quotes {
		if q.BelongsTo(client.DocumentID) {
			clientQuotes = append(clientQuotes, q)
		}
	}
	var clientProjects []Project
	for _, p := range projects {
		if p.BelongsTo(client.DocumentID) {
			clientProjects = append(clientProjects, p)
		}
	}

	if anyProject(clientProjects, isFinishedProject) {
		if allProjects(clientProjects, isFinishedProject) {
			return StatusWon
		}
		return StatusDelivered
	}

	if anyProject(clientProjects, isActiveProject) {
		return StatusInProgress
	}

	for _, rule := range quoteRules {
		if anyQuoteWithStatus(clientQuotes, rule.quoteStatus) {
			return rule.result
		}
	}

	if hasEmailsSent {
		return StatusContacted
	}

	return StatusNew
}

var quoteRules = []struct {
	quoteStatus string
	result      Status
}{
	{QuoteStatusAccepted, StatusQuoteAccepted},
	{QuoteStatusNegotiation, StatusNegotiation},
	{QuoteStatusSent, StatusQuoteSent},
	{QuoteStatusDraft, StatusQualified},
}

func isFinishedProject(p Project) bool {
	return p.ProjectStatus == ProjectStatusCompleted || p.ProjectStatus == ProjectStatusArchived
}

func isActiveProject(p Project) bool {
	return p.ProjectStatus == ProjectStatusInProgress || p.ProjectStatus == ProjectStatusDevelopment
}

func anyProject(projects []Project, pred func(Project) bool) bool {
	for _, p := range projects {
		if pred(p) {
			return true
		}
	}
	return false
}

func allProjects(projects []Project, pred func(Project) bool) bool {
	if len(projects) == 0 {
		return false
	}
	for _, p := range projects {
		if !pred(p) {
			return false
		}
	}
	return true
}

func anyQuoteWithStatus(quotes []Quote, status string) bool {
	for _, q := range quotes {
		if q.QuoteStatus == status {
			return true
		}
	}
	return false
}

// GetMostPrioritaryStatus returns whichever of current and next ranks higher in
// the merge priority order. A nil current yields next; ties keep current.
func GetMostPrioritaryStatus(current *Status, next Status) Status {
	if current == nil {
		return next
	}
	currentRank, okCurrent := priorityRank[*current]
	nextRank, okNext := priorityRank[next]
	switch {
	case !okNext:
		return *current
	case !okCurrent:
		return next
	case nextRank < currentRank:
		return next
	default:
		return *current
	}
}

// ShouldAutoUpdateStatus reports whether automatic recalculation may overwrite
// current. Manual statuses (lost, maintenance) are protected.
func ShouldAutoUpdateStatus(current *Status) bool {
	if current == nil {
		return true
	}
	return !current.IsManual()
}

// Action is a discrete business event that moves a client along the pipeline.
type Action string

const (
	ActionQuoteSent        Action = "quote_sent"
	ActionQuoteAccepted    Action = "quote_accepted"
	ActionQuoteRejected    Action = "quote_rejected"
	ActionProjectStarted   Action = "project_started"
	ActionProjectCompleted Action = "project_completed"
	ActionEmailSent        Action = "email_sent"
)

var actionStatuses = map[Action]Status{
	ActionQuoteSent:        StatusQuoteSent,
	ActionQuoteAccepted:    StatusQuoteAccepted,
	ActionQuoteRejected:    StatusLost,
	ActionProjectStarted:   StatusInProgress,
	ActionProjectCompleted: StatusDelivered,
	ActionEmailSent:        StatusContacted,
}

// IsKnown reports whether a is one of the mapped business events.
func (a Action) IsKnown() bool {
	_, ok := actionStatuses[a]
	return ok
}

// StatusFromAction maps a business event to the status it implies. Unknown
// actions map to new.
func StatusFromAction(action Action) Status {
	if s, ok := actionStatuses[action]; ok {
		return s
	}
	return StatusNew
}
