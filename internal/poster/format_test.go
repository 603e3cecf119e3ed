package poster

import (
	"strings"
	"testing"

	"haulbot/internal/board"
)

func TestFormatMessage(t *testing.T) {
	t.Parallel()
	e := board.Entry{
		LoadID:       "LB-1042",
		Distance:     "1,234.5 miles",
		PickupTime:   "01/15/2026 09:00 AM",
		DeliveryTime: "01/16/2026 05:30 PM",
		Stops:        []string{"MIAMI, FL 33101", "ATLANTA, GA 30301"},
		StateCode:    "FL",
	}

	got, err := formatMessage(e)
	if err != nil {
		t.Fatalf("formatMessage: %v", err)
	}
	for _, want := range []string{
		"<code>LB-1042</code>",
		"1,234.5 miles",
		"<b>Stop 1</b>: MIAMI, FL 33101",
		"<b>Stop 2</b>: ATLANTA, GA 30301",
		"#FL",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q:\n%s", want, got)
		}
	}
}

func TestFormatMessageEscapesHTML(t *testing.T) {
	t.Parallel()
	e := board.Entry{
		LoadID: "X<script>",
		Stops:  []string{"A & B <CITY>"},
	}
	got, err := formatMessage(e)
	if err != nil {
		t.Fatalf("formatMessage: %v", err)
	}
	if strings.Contains(got, "<script>") || strings.Contains(got, "<CITY>") {
		t.Fatalf("unescaped payload in message:\n%s", got)
	}
}

func TestFormatMessageErrors(t *testing.T) {
	t.Parallel()
	if _, err := formatMessage(board.Entry{Stops: []string{"A"}}); err == nil {
		t.Error("expected error for missing load id")
	}
	if _, err := formatMessage(board.Entry{LoadID: "L1"}); err == nil {
		t.Error("expected error for missing stops")
	}
}

func TestFormatMessageNoStateCode(t *testing.T) {
	t.Parallel()
	got, err := formatMessage(board.Entry{LoadID: "L1", Stops: []string{"A, BB"}})
	if err != nil {
		t.Fatalf("formatMessage: %v", err)
	}
	if strings.Contains(got, "#") {
		t.Fatalf("unexpected hashtag without state code:\n%s", got)
	}
}
