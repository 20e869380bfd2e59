package menu

import (
	"reflect"
	"testing"
	"time"

	"github.com/pixelharbor/concierge/internal/domain"
)

func newTestNavigator() *Navigator {
	return NewNavigator(DefaultCatalog(), 5*time.Minute)
}

func TestNavigateBeveragesToLatte(t *testing.T) {
	nav := newTestNavigator()
	session := domain.SessionID("session-1")

	res := nav.Navigate("Could I see the beverages please?", session)
	if res.Type != ShowOptions {
		t.Fatalf("expected ShowOptions, got %s", res.Type)
	}
	wantOptions := []string{"Coffee", "Tea", "Water", "Hot Chocolate"}
	if !reflect.DeepEqual(res.Options, wantOptions) {
		t.Fatalf("expected options %v, got %v", wantOptions, res.Options)
	}
	wantMsg := "Sure! We have Coffee, Tea, Water and Hot Chocolate available."
	if res.Message != wantMsg {
		t.Fatalf("expected message %q, got %q", wantMsg, res.Message)
	}

	res = nav.Navigate("coffee", session)
	if res.Type != ShowOptions {
		t.Fatalf("expected ShowOptions, got %s", res.Type)
	}
	wantOptions = []string{"Mocha", "Espresso", "Latte", "Iced Coffee", "Cappuccino"}
	if !reflect.DeepEqual(res.Options, wantOptions) {
		t.Fatalf("expected options %v, got %v", wantOptions, res.Options)
	}

	res = nav.Navigate("a latte would be lovely", session)
	if res.Type != FinalItem {
		t.Fatalf("expected FinalItem, got %s", res.Type)
	}
	if res.SelectedItem != "Latte" {
		t.Fatalf("expected Latte, got %q", res.SelectedItem)
	}
	if res.Message != "*smiles* Coming right up!" {
		t.Fatalf("unexpected message %q", res.Message)
	}

	// Context cleared: the next message is evaluated against the root again.
	res = nav.Navigate("latte", session)
	if res.Type != NoMatch {
		t.Fatalf("expected NoMatch after completion, got %s", res.Type)
	}
}

func TestNavigateCancellation(t *testing.T) {
	nav := newTestNavigator()
	session := domain.SessionID("session-2")

	for _, msg := range []string{"back", "cancel", "nevermind"} {
		nav.Navigate("beverages", session)

		res := nav.Navigate(msg, session)
		if res.Type != Cancelled {
			t.Fatalf("message %q: expected Cancelled, got %s", msg, res.Type)
		}

		// Context is gone: a nested option no longer matches.
		res = nav.Navigate("coffee", session)
		if res.Type != NoMatch {
			t.Fatalf("message %q: expected NoMatch after cancel, got %s", msg, res.Type)
		}
	}
}

func TestNavigateCancellationFromRoot(t *testing.T) {
	nav := newTestNavigator()

	res := nav.Navigate("nevermind then", "session-3")
	if res.Type != Cancelled {
		t.Fatalf("expected Cancelled from root, got %s", res.Type)
	}
}

func TestNavigateExpiredContextIsRoot(t *testing.T) {
	nav := newTestNavigator()
	session := domain.SessionID("session-4")

	now := time.Now()
	nav.now = func() time.Time { return now }

	if res := nav.Navigate("beverages", session); res.Type != ShowOptions {
		t.Fatalf("expected ShowOptions, got %s", res.Type)
	}

	// Step past the timeout: the stored context must be indistinguishable
	// from no context at all.
	nav.now = func() time.Time { return now.Add(6 * time.Minute) }

	res := nav.Navigate("coffee", session)
	if res.Type != NoMatch {
		t.Fatalf("expected NoMatch on expired context, got %s", res.Type)
	}

	// A root category still matches.
	res = nav.Navigate("snacks", session)
	if res.Type != ShowOptions {
		t.Fatalf("expected ShowOptions, got %s", res.Type)
	}
}

func TestNavigateNoMatchKeepsContext(t *testing.T) {
	nav := newTestNavigator()
	session := domain.SessionID("session-5")

	nav.Navigate("beverages", session)

	res := nav.Navigate("what's the weather like?", session)
	if res.Type != NoMatch {
		t.Fatalf("expected NoMatch, got %s", res.Type)
	}
	if len(res.Options) != 4 {
		t.Fatalf("expected current options reported, got %v", res.Options)
	}

	// Context untouched: a valid option still works.
	res = nav.Navigate("tea", session)
	if res.Type != ShowOptions {
		t.Fatalf("expected ShowOptions, got %s", res.Type)
	}
}

func TestOfferSentenceGrammar(t *testing.T) {
	catalog := &Catalog{
		Categories: []*Category{
			Leaf("Empty"),
			Leaf("Single", "Water"),
			Leaf("Pair", "Cookies", "Chips"),
		},
	}
	nav := NewNavigator(catalog, time.Minute)

	cases := []struct {
		message string
		want    string
	}{
		{"empty", "I'm sorry, there are no options available in this category."},
		{"single", "Sure! We have Water available."},
		{"pair", "Sure! We have Cookies and Chips available."},
	}
	for _, tc := range cases {
		res := nav.Navigate(tc.message, domain.SessionID("grammar-"+tc.message))
		if res.Type != ShowOptions {
			t.Fatalf("%q: expected ShowOptions, got %s", tc.message, res.Type)
		}
		if res.Message != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.message, tc.want, res.Message)
		}
	}
}

func TestSweepDropsExpiredContexts(t *testing.T) {
	nav := newTestNavigator()

	now := time.Now()
	nav.now = func() time.Time { return now }

	nav.Navigate("beverages", "s1")
	nav.Navigate("snacks", "s2")

	nav.now = func() time.Time { return now.Add(10 * time.Minute) }

	if n := nav.Sweep(); n != 2 {
		t.Fatalf("expected 2 contexts swept, got %d", n)
	}
	if n := nav.Sweep(); n != 0 {
		t.Fatalf("expected nothing left to sweep, got %d", n)
	}
}
