package models

// ReferenceData is every lookup table a form session needs
type ReferenceData struct {
	EventGroups              []Category           `json:"event_groups"`
	EventCategories          []Category           `json:"event_categories"`
	Programs                 []Category           `json:"programs"`
	IntendedFor              []Category           `json:"intended_for"`
	Diets                    []Category           `json:"diets"`
	Qualifications           []Category           `json:"qualifications"`
	AdministrationUnits      []AdministrationUnit `json:"administration_units"`
	OpportunityCategories    []Category           `json:"opportunity_categories"`
	HealthInsuranceCompanies []Category           `json:"health_insurance_companies"`
}

// SlugOf resolves a category id to its slug, or "" when unknown
func SlugOf(cats []Category, id int) string {
	for _, c := range cats {
		if c.ID == id {
			return c.Slug
		}
	}
	return ""
}

// FindBySlug resolves a slug to its category
func FindBySlug(cats []Category, slug string) (Category, bool) {
	for _, c := range cats {
		if c.Slug == slug {
			return c, true
		}
	}
	return Category{}, false
}

// NameOf resolves a category slug to its display name, falling back to the slug
func NameOf(cats []Category, slug string) string {
	if c, ok := FindBySlug(cats, slug); ok && c.Name != "" {
		return c.Name
	}
	return slug
}
