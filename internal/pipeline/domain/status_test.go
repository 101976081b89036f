package domain

import "testing"

func TestAllStatusesFunnelOrder(t *testing.T) {
	got := AllStatuses()
	if len(got) != 12 {
		t.Fatalf("expected 12 statuses, got %d", len(got))
	}
	if got[0] != StatusNew || got[len(got)-1] != StatusLost {
		t.Fatalf("unexpected funnel bounds: %s..%s", got[0], got[len(got)-1])
	}

	got[0] = StatusWon
	if AllStatuses()[0] != StatusNew {
		t.Fatal("expected AllStatuses to return a copy")
	}
}

func TestPriorityOrderCoversEveryStatus(t *testing.T) {
	if len(priorityOrder) != len(funnelOrder) {
		t.Fatalf("priority order has %d entries, funnel has %d", len(priorityOrder), len(funnelOrder))
	}
	for _, s := range funnelOrder {
		if _, ok := priorityRank[s]; !ok {
			t.Errorf("status %s missing from priority order", s)
		}
	}
}

func TestPipelineStatusLabel(t *testing.T) {
	cases := map[Status]string{
		StatusNew:         "Nouveau",
		StatusQuoteSent:   "Devis envoyé",
		StatusNegotiation: "En négociation",
		StatusWon:         "Gagné",
		StatusLost:        "Perdu",
		Status("custom"):  "custom",
	}
	for status, want := range cases {
		if got := PipelineStatusLabel(status); got != want {
			t.Errorf("PipelineStatusLabel(%q) = %q, want %q", status, got, want)
		}
	}
	for _, s := range AllStatuses() {
		if PipelineStatusLabel(s) == string(s) {
			t.Errorf("status %s has no label", s)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus("quote_accepted"); !ok || s != StatusQuoteAccepted {
		t.Fatalf("expected quote_accepted to parse, got %q %v", s, ok)
	}
	if _, ok := ParseStatus("archived"); ok {
		t.Fatal("expected archived to be rejected")
	}
}
