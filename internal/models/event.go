package models

// RegistrationMethod is the UI-only discriminant of how people sign up for an event
type RegistrationMethod string

const (
	RegistrationStandard RegistrationMethod = "standard"
	RegistrationOther    RegistrationMethod = "other"
	RegistrationNone     RegistrationMethod = "none"
	RegistrationFull     RegistrationMethod = "full"
)

// Valid reports whether m is one of the four known methods
func (m RegistrationMethod) Valid() bool {
	switch m {
	case RegistrationStandard, RegistrationOther, RegistrationNone, RegistrationFull:
		return true
	}
	return false
}

// EventCore holds the event fields shared by the read and write shapes
type EventCore struct {
	Name                     string        `json:"name"`
	IsCanceled               bool          `json:"is_canceled"`
	IsClosed                 bool          `json:"is_closed"`
	Start                    Date          `json:"start"`
	StartTime                *string       `json:"start_time"`
	End                      Date          `json:"end"`
	NumberOfSubEvents        int           `json:"number_of_sub_events"`
	Location                 LocationField `json:"location"`
	OnlineLink               string        `json:"online_link"`
	Group                    int           `json:"group"`
	Category                 int           `json:"category"`
	Program                  int           `json:"program"`
	IntendedFor              int           `json:"intended_for"`
	AdministrationUnits      []int         `json:"administration_units"`
	IsAttendanceListRequired bool          `json:"is_attendance_list_required"`
	InternalNote             string        `json:"internal_note"`
}

// QuestionData describes how a questionnaire question is answered
type QuestionData struct {
	Type    string   `json:"type"` // text, checkbox, radio
	Options []string `json:"options,omitempty"`
}

// Question is one item of a registration questionnaire
type Question struct {
	ID         int          `json:"id,omitempty"`
	Question   string       `json:"question"`
	IsRequired bool         `json:"is_required"`
	Order      int          `json:"order"`
	Data       QuestionData `json:"data"`
}

// Questionnaire is asked to every applicant of an event
type Questionnaire struct {
	Introduction          string     `json:"introduction"`
	AfterRegistrationText string     `json:"after_registration_text"`
	Questions             []Question `json:"questions,omitempty"`
}

// EventRegistration controls whether and how people register
type EventRegistration struct {
	IsRegistrationRequired      bool           `json:"is_registration_required"`
	IsEventFull                 bool           `json:"is_event_full"`
	AlternativeRegistrationLink string         `json:"alternative_registration_link"`
	Questionnaire               *Questionnaire `json:"questionnaire"`
}

// PropagationCore holds promotion fields shared by the read and write shapes
type PropagationCore struct {
	IsShownOnWeb                       bool   `json:"is_shown_on_web"`
	MinimumAge                         *int   `json:"minimum_age"`
	MaximumAge                         *int   `json:"maximum_age"`
	Cost                               string `json:"cost"`
	DiscountedCost                     string `json:"discounted_cost"`
	Accommodation                      string `json:"accommodation"`
	Diets                              []int  `json:"diets"`
	Organizers                         string `json:"organizers"`
	WebURL                             string `json:"web_url"`
	WorkingDays                        *int   `json:"working_days"`
	WorkingHours                       *int   `json:"working_hours"`
	InvitationTextIntroductory         string `json:"invitation_text_introductory"`
	InvitationTextPracticalInformation string `json:"invitation_text_practical_information"`
	InvitationTextWorkDescription      string `json:"invitation_text_work_description"`
	InvitationTextAboutUs              string `json:"invitation_text_about_us"`
	ContactName                        string `json:"contact_name"`
	ContactEmail                       string `json:"contact_email"`
	ContactPhone                       string `json:"contact_phone"`
}

// EventImage is a promotional image; Order 0 is the main image
type EventImage struct {
	ID    int    `json:"id,omitempty"`
	Order int    `json:"order"`
	Image string `json:"image"`
}

// EventPropagation is the read shape of an event's promotion block
type EventPropagation struct {
	PropagationCore
	ContactPerson *User        `json:"contact_person"`
	Images        []EventImage `json:"images,omitempty"`
}

// Event is an event as read from the backend
type Event struct {
	ID int `json:"id,omitempty"`
	EventCore
	MainOrganizer   *User             `json:"main_organizer"`
	OtherOrganizers []User            `json:"other_organizers"`
	Registration    EventRegistration `json:"registration"`
	Propagation     EventPropagation  `json:"propagation"`
}

// EventForm is the whole event wizard state: the backend event plus
// UI-only discriminant fields.
type EventForm struct {
	Event
	Online                       bool               `json:"online"`
	RegistrationMethod           RegistrationMethod `json:"registrationMethod"`
	ContactPersonIsMainOrganizer bool               `json:"contactPersonIsMainOrganizer"`
}

// PropagationPayload is the write shape of the promotion block
type PropagationPayload struct {
	PropagationCore
	ContactPerson *int `json:"contact_person"`
}

// EventPayload is the exact body the backend expects when creating or
// updating an event. Users are referenced by id.
type EventPayload struct {
	EventCore
	MainOrganizer   *int               `json:"main_organizer"`
	OtherOrganizers []int              `json:"other_organizers"`
	Registration    EventRegistration  `json:"registration"`
	Propagation     PropagationPayload `json:"propagation"`
}

// EventFilter narrows event listings
type EventFilter struct {
	IDs      []int
	Search   string
	Group    int
	Category int
	Page     int
	PageSize int
}

// FormFromEvent derives the form for an existing event. The UI-only fields
// are reconstructed from backend state.
func FormFromEvent(e Event, onlineLocationID int) EventForm {
	form := EventForm{Event: e}
	if id, ok := e.Location.ExistingID(); ok && onlineLocationID != 0 && id == onlineLocationID {
		form.Online = true
	}

	reg := e.Registration
	switch {
	case reg.IsEventFull:
		form.RegistrationMethod = RegistrationFull
	case !reg.IsRegistrationRequired:
		form.RegistrationMethod = RegistrationNone
	case reg.AlternativeRegistrationLink != "":
		form.RegistrationMethod = RegistrationOther
	default:
		form.RegistrationMethod = RegistrationStandard
	}

	if e.MainOrganizer != nil && e.Propagation.ContactPerson != nil &&
		e.MainOrganizer.ID == e.Propagation.ContactPerson.ID {
		form.ContactPersonIsMainOrganizer = true
	}
	return form
}
