package models

// Application states as used by the backend
const (
	ApplicationPending   = "pending"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
	ApplicationCancelled = "cancelled"
)

// Address is a postal address of an applicant
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
}

// ClosePerson is a guardian or other contact for an applicant
type ClosePerson struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Answer is an applicant's answer to one questionnaire question
type Answer struct {
	Question int    `json:"question"`
	Answer   string `json:"answer"`
}

// Application is a registration of a person for an event
type Application struct {
	ID                     int          `json:"id,omitempty"`
	User                   *int         `json:"user,omitempty"`
	FirstName              string       `json:"first_name"`
	LastName               string       `json:"last_name"`
	Nickname               string       `json:"nickname"`
	Email                  string       `json:"email"`
	Phone                  string       `json:"phone"`
	Birthday               Date         `json:"birthday"`
	HealthInsuranceCompany *int         `json:"health_insurance_company"`
	Address                *Address     `json:"address"`
	ClosePerson            *ClosePerson `json:"close_person"`
	Note                   string       `json:"note"`
	State                  string       `json:"state,omitempty"`
	Answers                []Answer     `json:"answers"`
}

// ApplicationFilter narrows application listings
type ApplicationFilter struct {
	State    string
	Page     int
	PageSize int
}
