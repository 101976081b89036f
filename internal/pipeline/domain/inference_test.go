package domain

import (
	"slices"
	"testing"
)

func statusPtr(s Status) *Status {
	return &s
}

func TestCalculateClientPipelineStatus(t *testing.T) {
	const clientID = "cli_1"
	client := Client{DocumentID: clientID}

	cases := []struct {
		name     string
		quotes   []Quote
		projects []Project
		emails   bool
		want     Status
	}{
		{
			name:     "all projects completed wins over sent quote",
			quotes:   []Quote{{DocumentType: DocumentTypeQuote, QuoteStatus: QuoteStatusSent, ClientID: clientID}},
			projects: []Project{{ProjectStatus: ProjectStatusCompleted, ClientID: clientID}},
			want:     StatusWon,
		},
		{
			name: "archived counts as finished",
			projects: []Project{
				{ProjectStatus: ProjectStatusCompleted, ClientID: clientID},
				{ProjectStatus: ProjectStatusArchived, ClientID: clientID},
			},
			want: StatusWon,
		},
		{
			name: "completed plus in progress is delivered",
			projects: []Project{
				{ProjectStatus: ProjectStatusCompleted, ClientID: clientID},
				{ProjectStatus: ProjectStatusInProgress, ClientID: clientID},
			},
			want: StatusDelivered,
		},
		{
			name:     "development is in progress",
			projects: []Project{{ProjectStatus: ProjectStatusDevelopment, ClientID: clientID}},
			want:     StatusInProgress,
		},
		{
			name:     "planning project falls through to quotes",
			projects: []Project{{ProjectStatus: ProjectStatusPlanning, ClientID: clientID}},
			quotes:   []Quote{{QuoteStatus: QuoteStatusDraft, ClientDocumentID: clientID}},
			want:     StatusQualified,
		},
		{
			name: "accepted quote beats negotiation and sent",
			quotes: []Quote{
				{QuoteStatus: QuoteStatusSent, ClientID: clientID},
				{QuoteStatus: QuoteStatusNegotiation, ClientID: clientID},
				{QuoteStatus: QuoteStatusAccepted, ClientID: clientID},
			},
			want: StatusQuoteAccepted,
		},
		{
			name: "negotiation beats sent",
			quotes: []Quote{
				{QuoteStatus: QuoteStatusSent, ClientID: clientID},
				{QuoteStatus: QuoteStatusNegotiation, ClientID: clientID},
			},
			want: StatusNegotiation,
		},
		{
			name:   "sent quote via legacy reference",
			quotes: []Quote{{QuoteStatus: QuoteStatusSent, ClientID: "", ClientDocumentID: clientID}},
			want:   StatusQuoteSent,
		},
		{
			name:   "rejected quote alone falls back to email signal",
			quotes: []Quote{{QuoteStatus: QuoteStatusRejected, ClientID: clientID}},
			emails: true,
			want:   StatusContacted,
		},
		{
			name:   "no data with emails is contacted",
			emails: true,
			want:   StatusContacted,
		},
		{
			name: "no data is new",
			want: StatusNew,
		},
		{
			name:     "other clients are ignored",
			quotes:   []Quote{{QuoteStatus: QuoteStatusAccepted, ClientID: "cli_2"}},
			projects: []Project{{ProjectStatus: ProjectStatusCompleted, ClientID: "cli_2"}},
			want:     StatusNew,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateClientPipelineStatus(client, tc.quotes, tc.projects, tc.emails)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestCalculateClientPipelineStatusEmptyClientIDMatchesNothing(t *testing.T) {
	quotes := []Quote{{QuoteStatus: QuoteStatusAccepted}}
	projects := []Project{{ProjectStatus: ProjectStatusCompleted}}

	if got := CalculateClientPipelineStatus(Client{}, quotes, projects, false); got != StatusNew {
		t.Fatalf("expected new for client without id, got %q", got)
	}
}

func TestGetMostPrioritaryStatus(t *testing.T) {
	cases := []struct {
		current *Status
		next    Status
		want    Status
	}{
		{statusPtr(StatusWon), StatusNew, StatusWon},
		{nil, StatusContacted, StatusContacted},
		{statusPtr(StatusContacted), StatusQuoteSent, StatusQuoteSent},
		{statusPtr(StatusQuoteAccepted), StatusNegotiation, StatusQuoteAccepted},
		{statusPtr(StatusNew), StatusLost, StatusNew},
		{statusPtr(StatusMaintenance), StatusDelivered, StatusMaintenance},
		{statusPtr(StatusQualified), StatusQualified, StatusQualified},
		{statusPtr(StatusNew), Status("bogus"), StatusNew},
	}

	for _, tc := range cases {
		got := GetMostPrioritaryStatus(tc.current, tc.next)
		if got != tc.want {
			current := "<nil>"
			if tc.current != nil {
				current = string(*tc.current)
			}
			t.Errorf("GetMostPrioritaryStatus(%s, %s) = %s, want %s", current, tc.next, got, tc.want)
		}
	}
}

func TestShouldAutoUpdateStatus(t *testing.T) {
	if !ShouldAutoUpdateStatus(nil) {
		t.Fatal("expected nil status to allow automatic update")
	}
	for _, s := range []Status{StatusLost, StatusMaintenance} {
		if ShouldAutoUpdateStatus(statusPtr(s)) {
			t.Errorf("expected %s to be protected", s)
		}
	}
	for _, s := range []Status{StatusNew, StatusWon, StatusQuoteSent, StatusDelivered} {
		if !ShouldAutoUpdateStatus(statusPtr(s)) {
			t.Errorf("expected %s to allow automatic update", s)
		}
	}
}

func TestStatusFromAction(t *testing.T) {
	cases := map[Action]Status{
		ActionQuoteSent:        StatusQuoteSent,
		ActionQuoteAccepted:    StatusQuoteAccepted,
		ActionQuoteRejected:    StatusLost,
		ActionProjectStarted:   StatusInProgress,
		ActionProjectCompleted: StatusDelivered,
		ActionEmailSent:        StatusContacted,
		Action("unknown"):      StatusNew,
		Action(""):             StatusNew,
	}
	for action, want := range cases {
		if got := StatusFromAction(action); got != want {
			t.Errorf("StatusFromAction(%q) = %q, want %q", action, got, want)
		}
	}
	if Action("unknown").IsKnown() {
		t.Fatal("expected unknown action to be reported as unknown")
	}
}

func TestQuoteClientIDs(t *testing.T) {
	cases := []struct {
		name  string
		quote Quote
		want  []string
	}{
		{"both refs", Quote{ClientID: "primary", ClientDocumentID: "legacy"}, []string{"primary", "legacy"}},
		{"legacy only", Quote{ClientDocumentID: "legacy"}, []string{"legacy"}},
		{"same ref twice", Quote{ClientID: "c1", ClientDocumentID: "c1"}, []string{"c1"}},
		{"none", Quote{}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.quote.ClientIDs()
			if !slices.Equal(got, tc.want) {
				t.Fatalf("ClientIDs() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestQuoteBelongsToEitherReference(t *testing.T) {
	q := Quote{ClientID: "primary", ClientDocumentID: "legacy"}
	if !q.BelongsTo("primary") || !q.BelongsTo("legacy") {
		t.Fatal("expected quote to belong to both referenced clients")
	}
	if q.BelongsTo("other") || q.BelongsTo("") {
		t.Fatal("expected quote not to belong to unrelated or empty client")
	}
}
