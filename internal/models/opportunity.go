package models

// Opportunity is a volunteering opportunity published by an organizer
type Opportunity struct {
	ID               int           `json:"id,omitempty"`
	Category         int           `json:"category"`
	Name             string        `json:"name"`
	Start            Date          `json:"start"`
	End              Date          `json:"end"`
	OnWebStart       Date          `json:"on_web_start"`
	OnWebEnd         Date          `json:"on_web_end"`
	Location         LocationField `json:"location"`
	Introduction     string        `json:"introduction"`
	Description      string        `json:"description"`
	LocationBenefits string        `json:"location_benefits"`
	PersonalBenefits string        `json:"personal_benefits"`
	Requirements     string        `json:"requirements"`
	ContactName      string        `json:"contact_name"`
	ContactPhone     string        `json:"contact_phone"`
	ContactEmail     string        `json:"contact_email"`
	Image            string        `json:"image,omitempty"`
}
