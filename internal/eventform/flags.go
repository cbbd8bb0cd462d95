package eventform

import (
	"strings"
	"time"

	"github.com/abrezinsky/bisadmin/internal/models"
)

// Flags are derived from the whole form and passed to every step
// validator, since a step only sees its own fields.
type Flags struct {
	IsCamp         bool
	IsWeekendEvent bool
	IsVolunteering bool
	IsInternal     bool
	IsForKids      bool
	// RequiredQualifications are the slugs a main organizer may hold;
	// empty when the event places no requirement.
	RequiredQualifications []string

	Event EventContext
	Rules Rules
	Now   time.Time
}

// DeriveFlags computes the cross-step flags of form
func DeriveFlags(form models.EventForm, ref models.ReferenceData, rules Rules, now time.Time) Flags {
	ec := EventContext{
		Group:       models.SlugOf(ref.EventGroups, form.Group),
		Category:    models.SlugOf(ref.EventCategories, form.Category),
		IntendedFor: models.SlugOf(ref.IntendedFor, form.IntendedFor),
		Start:       form.Start,
		Names:       make(map[string]string, len(ref.Qualifications)),
	}
	for _, q := range ref.Qualifications {
		ec.Names[q.Slug] = q.Name
	}

	return Flags{
		IsCamp:                 ec.Group == "camp",
		IsWeekendEvent:         ec.Group == "weekend_event",
		IsVolunteering:         strings.Contains(ec.Category, "volunteering"),
		IsInternal:             strings.HasPrefix(ec.Category, "internal__"),
		IsForKids:              ec.IntendedFor == "for_kids",
		RequiredQualifications: rules.Required(ec),
		Event:                  ec,
		Rules:                  rules,
		Now:                    now,
	}
}

// MultiDay reports whether the event needs accommodation and diets
func (f Flags) MultiDay() bool {
	return f.IsCamp || f.IsWeekendEvent
}
