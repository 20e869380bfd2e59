package menu

import (
	"strings"
	"sync"
	"time"

	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

// ResultType classifies the outcome of one navigation step.
type ResultType string

const (
	// NoMatch means the message was not menu-directed; the caller should
	// fall through to the response generator.
	NoMatch ResultType = "no_match"
	// ShowOptions means the visitor entered a category and should be told
	// what it offers.
	ShowOptions ResultType = "show_options"
	// FinalItem means a selectable item was picked; navigation is done.
	FinalItem ResultType = "final_item"
	// Cancelled means the visitor backed out of the menu.
	Cancelled ResultType = "cancelled"
)

// Result is the outcome of one navigation step.
type Result struct {
	Type         ResultType
	CategoryName string
	Options      []string
	SelectedItem string
	Message      string
}

// sessionContext tracks where a session currently is in the menu tree.
// A context older than the navigator's timeout is treated as absent.
type sessionContext struct {
	path            string // dot-separated, e.g. "Beverages.Coffee"
	options         []string
	lastInteraction time.Time
}

// Navigator is the per-session menu state machine. It is safe for concurrent
// use; all state is per-session, guarded by a single short-held mutex.
type Navigator struct {
	catalog *Catalog
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	contexts map[domain.SessionID]*sessionContext
}

// NewNavigator creates a Navigator over the given catalog. timeout bounds how
// long an idle session keeps its menu position.
func NewNavigator(catalog *Catalog, timeout time.Duration) *Navigator {
	return &Navigator{
		catalog:  catalog,
		timeout:  timeout,
		now:      time.Now,
		contexts: make(map[domain.SessionID]*sessionContext),
	}
}

var cancelKeywords = []string{"back", "cancel", "nevermind"}

// Navigate advances the session's menu state based on the inbound message.
// Matching is substring-based and case-insensitive: a category or option name
// must appear somewhere inside the lower-cased message.
func (n *Navigator) Navigate(message string, sessionID domain.SessionID) Result {
	messageLower := strings.ToLower(strings.TrimSpace(message))

	result := n.navigate(messageLower, sessionID)
	observability.MenuNavigationsTotal.WithLabelValues(string(result.Type)).Inc()
	return result
}

func (n *Navigator) navigate(messageLower string, sessionID domain.SessionID) Result {
	for _, kw := range cancelKeywords {
		if strings.Contains(messageLower, kw) {
			n.ClearContext(sessionID)
			return Result{
				Type:    Cancelled,
				Message: "No problem! Let me know if you need anything else.",
			}
		}
	}

	current := n.context(sessionID)

	// No live context: the session is at the root.
	if current == nil {
		for _, cat := range n.catalog.TopLevel() {
			if strings.Contains(messageLower, strings.ToLower(cat.Name)) {
				return n.enterCategory(cat, sessionID, cat.Name)
			}
		}
		return Result{Type: NoMatch}
	}

	// In a category: first offered option found inside the message wins.
	for _, opt := range current.options {
		if !strings.Contains(messageLower, strings.ToLower(opt)) {
			continue
		}

		if node := n.catalog.At(current.path); node != nil {
			if child := node.Child(opt); child != nil {
				return n.enterCategory(child, sessionID, current.path+"."+opt)
			}
		}

		// A plain item, not a subcategory: navigation is complete.
		n.ClearContext(sessionID)
		return Result{
			Type:         FinalItem,
			SelectedItem: opt,
			Message:      "*smiles* Coming right up!",
		}
	}

	return Result{Type: NoMatch, Options: current.options}
}

// enterCategory stores the new position and builds the offer sentence.
func (n *Navigator) enterCategory(cat *Category, sessionID domain.SessionID, path string) Result {
	options := cat.Options()

	n.mu.Lock()
	n.contexts[sessionID] = &sessionContext{
		path:            path,
		options:         options,
		lastInteraction: n.now(),
	}
	n.mu.Unlock()

	var message string
	switch len(options) {
	case 0:
		message = "I'm sorry, there are no options available in this category."
	case 1:
		message = "Sure! We have " + options[0] + " available."
	case 2:
		message = "Sure! We have " + options[0] + " and " + options[1] + " available."
	default:
		message = "Sure! We have " + strings.Join(options[:len(options)-1], ", ") +
			" and " + options[len(options)-1] + " available."
	}

	return Result{
		Type:         ShowOptions,
		CategoryName: cat.Name,
		Options:      options,
		Message:      message,
	}
}

// context returns the session's live context, removing it if expired.
func (n *Navigator) context(sessionID domain.SessionID) *sessionContext {
	n.mu.Lock()
	defer n.mu.Unlock()

	ctx, ok := n.contexts[sessionID]
	if !ok {
		return nil
	}
	if n.now().Sub(ctx.lastInteraction) > n.timeout {
		delete(n.contexts, sessionID)
		return nil
	}
	return ctx
}

// ClearContext removes the session's menu position.
func (n *Navigator) ClearContext(sessionID domain.SessionID) {
	n.mu.Lock()
	delete(n.contexts, sessionID)
	n.mu.Unlock()
}

// Sweep removes every expired context and reports how many were dropped.
// Expiry is otherwise only detected on the next access, so idle sessions
// would pin their contexts forever without a periodic sweep.
func (n *Navigator) Sweep() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	removed := 0
	now := n.now()
	for id, ctx := range n.contexts {
		if now.Sub(ctx.lastInteraction) > n.timeout {
			delete(n.contexts, id)
			removed++
		}
	}
	return removed
}
