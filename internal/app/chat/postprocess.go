package chat

import (
	"regexp"
	"strings"

	"github.com/pixelharbor/concierge/internal/domain"
	"github.com/pixelharbor/concierge/internal/observability"
)

// Action tags are embedded in generated text as [ACTION:type=give,item=Coffee].
var actionTagPattern = regexp.MustCompile(`\[ACTION:([^\]]+)\]`)

// ExtractActions strips every action tag from the raw reply and returns the
// cleaned text plus the parsed actions. Tags that fail to parse are still
// removed from the visible text; if no tag parses, the slice is nil.
func ExtractActions(raw string) (string, []domain.Action) {
	var actions []domain.Action
	clean := raw

	for _, match := range actionTagPattern.FindAllStringSubmatch(raw, -1) {
		if action, ok := parseActionString(match[1]); ok {
			actions = append(actions, action)
		} else {
			observability.Logger().Warn("dropping malformed action tag", "tag", match[1])
		}
		clean = strings.TrimSpace(strings.ReplaceAll(clean, match[0], ""))
	}

	return clean, actions
}

// parseActionString parses the comma-separated key=value payload of one tag.
// "type" names the action, "item"/"location"/"name" set the target (last one
// wins), anything else becomes a free-form parameter. A payload without a
// type is malformed.
func parseActionString(payload string) (domain.Action, bool) {
	var actionType, target string
	params := map[string]string{}

	for _, part := range strings.Split(payload, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])

		switch key {
		case "type":
			actionType = value
		case "item", "location", "name":
			target = value
		default:
			params[key] = value
		}
	}

	if actionType == "" {
		return domain.Action{}, false
	}

	action := domain.Action{Type: actionType, Target: target}
	if len(params) > 0 {
		action.Parameters = params
	}
	return action, true
}

// SuggestAnimation picks an animation cue from the cleaned reply. The rules
// are ordered and the first match wins; changing them is externally visible
// to the in-world consumer, so keep the matching exactly as-is.
func SuggestAnimation(clean string, role domain.Role, endearment string) string {
	lower := strings.ToLower(clean)

	if strings.Contains(lower, "*wave") || strings.Contains(lower, "hello") || strings.Contains(lower, "welcome") {
		return "greet"
	}

	if strings.Contains(lower, "*offer") || strings.Contains(lower, "coffee") ||
		strings.Contains(lower, "tea") || strings.Contains(lower, "drink") {
		return "offer"
	}

	endearing := endearment != "" && strings.Contains(lower, strings.ToLower(endearment))
	if strings.Contains(lower, "*wink") ||
		(role == domain.RolePrivileged && (strings.Contains(lower, "*smile") || endearing)) {
		return "flirt"
	}

	if strings.Contains(lower, "*think") || strings.Contains(lower, "hmm") || strings.Contains(lower, "let me") {
		return "think"
	}

	return ""
}
