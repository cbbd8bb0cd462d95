package eventform

import (
	"fmt"
	"strings"
	"time"

	"github.com/abrezinsky/bisadmin/internal/models"
)

// MinOrganizerAge is the minimum age of a main organizer on the event start
const MinOrganizerAge = 18

// Rule maps an event's (group, category, intended-for) to the
// qualifications its main organizer may hold. Empty selectors match
// anything; Category matches by prefix. A rule with no qualifications
// means no requirement.
type Rule struct {
	Group          string
	Category       string
	IntendedFor    string
	Qualifications []string
}

func (r Rule) matches(ec EventContext) bool {
	return (r.Group == "" || r.Group == ec.Group) &&
		(r.Category == "" || strings.HasPrefix(ec.Category, r.Category)) &&
		(r.IntendedFor == "" || r.IntendedFor == ec.IntendedFor)
}

// Rules is a decision table evaluated top to bottom; the first match wins
type Rules []Rule

// DefaultRules is the decision table used by bisadmin
var DefaultRules = Rules{
	{Category: "internal__"},
	{Group: "camp", IntendedFor: "for_kids", Qualifications: []string{"kids_leader", "consultant_for_kids"}},
	{IntendedFor: "for_kids", Qualifications: []string{"kids_leader", "consultant_for_kids", "organizer"}},
	{Group: "camp", Qualifications: []string{"organizer", "consultant", "instructor"}},
	{Group: "weekend_event", Qualifications: []string{"weekend_organizer", "organizer", "consultant", "instructor"}},
}

// EventContext is what the qualification rule needs to know about an event
type EventContext struct {
	Group       string
	Category    string
	IntendedFor string
	Start       models.Date
	// Names maps qualification slugs to display names for messages
	Names map[string]string
}

// Required returns the accepted qualification slugs, or nil when the
// event places no requirement on its main organizer.
func (rules Rules) Required(ec EventContext) []string {
	for _, r := range rules {
		if r.matches(ec) {
			return r.Qualifications
		}
	}
	return nil
}

// CanBeMainOrganizer reports whether u may be the main organizer of the
// event. When not, the returned message says why.
func CanBeMainOrganizer(rules Rules, ec EventContext, u models.User, now time.Time) (bool, string) {
	if !ec.Start.IsZero() {
		if age := u.AgeOn(ec.Start.Time); age >= 0 && age < MinOrganizerAge {
			return false, fmt.Sprintf("%s musí být v den začátku akce starší %d let.", u.DisplayName(), MinOrganizerAge)
		}
	}

	required := rules.Required(ec)
	if len(required) == 0 {
		return true, ""
	}

	accepted := make(map[string]bool, len(required))
	for _, slug := range required {
		accepted[slug] = true
	}
	for _, q := range u.Qualifications {
		if accepted[q.Category.Slug] && q.ValidAt(now) {
			return true, ""
		}
	}

	names := make([]string, len(required))
	for i, slug := range required {
		names[i] = slug
		if n, ok := ec.Names[slug]; ok && n != "" {
			names[i] = n
		}
	}
	return false, fmt.Sprintf("%s nemá platnou kvalifikaci pro hlavního organizátora této akce (potřebná: %s).",
		u.DisplayName(), strings.Join(names, ", "))
}
