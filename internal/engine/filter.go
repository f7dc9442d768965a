package engine

import (
	"strings"
	"time"

	"plancal/internal/model"
)

type Logic string

const (
	LogicAnd Logic = "AND"
	LogicOr  Logic = "OR"
)

// FilterGroup combines conditions with its own logic. Groups are ANDed with
// each other.
type FilterGroup struct {
	Logic      Logic             `json:"logic"`
	Conditions []FilterCondition `json:"conditions"`
}

// MatchesFilterGroups reports whether ev passes every group. Within a group,
// OR needs any condition and AND needs all; an empty group passes.
func MatchesFilterGroups(ev model.Event, groups []FilterGroup, now time.Time) bool {
	for _, g := range groups {
		if !matchesGroup(ev, g, now) {
			return false
		}
	}
	return true
}

func matchesGroup(ev model.Event, g FilterGroup, now time.Time) bool {
	if len(g.Conditions) == 0 {
		return true
	}
	if strings.EqualFold(string(g.Logic), string(LogicOr)) {
		for _, c := range g.Conditions {
			if EvaluateCondition(ev, c, now) {
				return true
			}
		}
		return false
	}
	for _, c := range g.Conditions {
		if !EvaluateCondition(ev, c, now) {
			return false
		}
	}
	return true
}

// MatchesSearchTokens reports whether ev matches every token.
func MatchesSearchTokens(ev model.Event, tokens []SearchToken) bool {
	if len(tokens) == 0 {
		return true
	}
	text := strings.ToLower(ev.Title + " " + ev.Description)
	for _, tok := range tokens {
		var ok bool
		switch tok.Type {
		case TokenKeyword:
			ok = strings.Contains(text, tok.Value)
		case TokenUser:
			ok = matchesUser(ev, tok.Value)
		case TokenProject:
			ok = matchesProject(ev, tok.Value)
		case TokenTag:
			ok = hasLabel(ev.Labels, tok.Value)
		default:
			ok = true
		}
		if !ok {
			return false
		}
	}
	return true
}

func matchesUser(ev model.Event, v string) bool {
	if containsFold(ev.Owner.Name, v) {
		return true
	}
	for _, a := range ev.Attendees {
		if containsFold(a.Name, v) || containsFold(a.Email, v) {
			return true
		}
	}
	return false
}

func matchesProject(ev model.Event, v string) bool {
	if strings.EqualFold(ev.ProjectID, v) {
		return true
	}
	for _, li := range ev.LinkedItems {
		if strings.EqualFold(li.ID, v) {
			return true
		}
	}
	return false
}

func hasLabel(labels []string, v string) bool {
	for _, l := range labels {
		if strings.ToLower(l) == v {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), sub)
}

// FilterEvents returns copies of the events passing both the filter groups
// and the search tokens, in input order. It keeps no state, so applying it
// to its own output with the same arguments yields the same set.
func FilterEvents(events []model.Event, groups []FilterGroup, tokens []SearchToken, now time.Time) []model.Event {
	out := make([]model.Event, 0, len(events))
	for i := range events {
		ev := events[i]
		if !MatchesFilterGroups(ev, groups, now) {
			continue
		}
		if !MatchesSearchTokens(ev, tokens) {
			continue
		}
		out = append(out, ev.Clone())
	}
	return out
}
