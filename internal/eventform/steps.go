package eventform

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/abrezinsky/bisadmin/internal/drafts"
	"github.com/abrezinsky/bisadmin/internal/models"
)

// MaxNameLength is the longest event name the backend accepts
const MaxNameLength = 63

// Step is one page of the event wizard. A step owns the leaves named by
// Paths; Validate only ever sees the form projected to those paths.
type Step struct {
	Name     string
	Paths    []string
	Defaults drafts.Values
	Validate func(form models.EventForm, flags Flags) FieldErrors
}

// Step names
const (
	StepGroup        = "group"
	StepBasicInfo    = "basicInfo"
	StepIntendedFor  = "intendedFor"
	StepLocation     = "location"
	StepRegistration = "registration"
	StepPropagation  = "propagation"
	StepInvitation   = "invitation"
	StepOrganizers   = "organizers"
)

// EventSteps returns the wizard steps in display order
func EventSteps() []Step {
	return []Step{
		{
			Name:     StepGroup,
			Paths:    []string{"group"},
			Validate: validateGroup,
		},
		{
			Name: StepBasicInfo,
			Paths: []string{
				"name", "start", "start_time", "end", "number_of_sub_events",
				"category", "program", "administration_units",
				"is_attendance_list_required", "internal_note",
			},
			Defaults: drafts.Values{
				"number_of_sub_events":        1,
				"administration_units":        []any{},
				"is_attendance_list_required": false,
			},
			Validate: validateBasicInfo,
		},
		{
			Name:     StepIntendedFor,
			Paths:    []string{"intended_for"},
			Validate: validateIntendedFor,
		},
		{
			Name:     StepLocation,
			Paths:    []string{"online", "location", "online_link"},
			Defaults: drafts.Values{"online": false},
			Validate: validateLocation,
		},
		{
			Name:  StepRegistration,
			Paths: []string{"registrationMethod", "registration"},
			Defaults: drafts.Values{
				"registrationMethod": string(models.RegistrationStandard),
			},
			Validate: validateRegistration,
		},
		{
			Name: StepPropagation,
			Paths: []string{
				"propagation.is_shown_on_web", "propagation.minimum_age", "propagation.maximum_age",
				"propagation.cost", "propagation.discounted_cost", "propagation.accommodation",
				"propagation.diets", "propagation.organizers", "propagation.web_url",
				"propagation.working_days", "propagation.working_hours", "propagation.images",
			},
			Defaults: drafts.Values{
				"propagation": map[string]any{
					"is_shown_on_web": true,
					"diets":           []any{},
				},
			},
			Validate: validatePropagation,
		},
		{
			Name: StepInvitation,
			Paths: []string{
				"propagation.invitation_text_introductory",
				"propagation.invitation_text_practical_information",
				"propagation.invitation_text_work_description",
				"propagation.invitation_text_about_us",
			},
			Validate: validateInvitation,
		},
		{
			Name: StepOrganizers,
			Paths: []string{
				"main_organizer", "other_organizers", "contactPersonIsMainOrganizer",
				"propagation.contact_person", "propagation.contact_name",
				"propagation.contact_email", "propagation.contact_phone",
			},
			Defaults: drafts.Values{
				"contactPersonIsMainOrganizer": true,
				"other_organizers":             []any{},
			},
			Validate: validateOrganizers,
		},
	}
}

func validateGroup(form models.EventForm, _ Flags) FieldErrors {
	fe := FieldErrors{}
	if form.Group == 0 {
		fe.add("group", msgRequired)
	}
	return fe
}

func validateBasicInfo(form models.EventForm, _ Flags) FieldErrors {
	fe := FieldErrors{}
	switch {
	case blank(form.Name):
		fe.add("name", msgRequired)
	case utf8.RuneCountInString(form.Name) > MaxNameLength:
		fe.add("name", fmt.Sprintf("Název může mít nejvýše %d znaků.", MaxNameLength))
	}
	if form.Start.IsZero() {
		fe.add("start", msgRequired)
	}
	if form.StartTime != nil && *form.StartTime != "" && !timePattern.MatchString(*form.StartTime) {
		fe.add("start_time", "Zadejte čas ve formátu HH:MM.")
	}
	switch {
	case form.End.IsZero():
		fe.add("end", msgRequired)
	case !form.Start.IsZero() && form.End.Before(form.Start.Time):
		fe.add("end", "Konec akce musí být stejný nebo pozdější než začátek.")
	}
	if form.NumberOfSubEvents < 1 {
		fe.add("number_of_sub_events", "Počet akcí musí být alespoň 1.")
	}
	if form.Category == 0 {
		fe.add("category", msgRequired)
	}
	if form.Program == 0 {
		fe.add("program", msgRequired)
	}
	if len(form.AdministrationUnits) == 0 {
		fe.add("administration_units", "Vyberte alespoň jednu organizační jednotku.")
	}
	return fe
}

func validateIntendedFor(form models.EventForm, _ Flags) FieldErrors {
	fe := FieldErrors{}
	if form.IntendedFor == 0 {
		fe.add("intended_for", msgRequired)
	}
	return fe
}

func validateLocation(form models.EventForm, _ Flags) FieldErrors {
	fe := FieldErrors{}
	if form.Online {
		switch {
		case blank(form.OnlineLink):
			fe.add("online_link", msgRequired)
		case !validURL(form.OnlineLink):
			fe.add("online_link", msgInvalidURL)
		}
		return fe
	}

	if !form.Location.IsSet() {
		fe.add("location", msgRequired)
		return fe
	}
	if draft, ok := form.Location.Draft(); ok {
		if blank(draft.Name) {
			fe.add("location.name", msgRequired)
		}
		if blank(draft.Address) && draft.GPSLocation == nil {
			fe.add("location.address", "Zadejte adresu nebo vyberte místo na mapě.")
		}
	}
	return fe
}

func validateRegistration(form models.EventForm, _ Flags) FieldErrors {
	fe := FieldErrors{}
	switch {
	case form.RegistrationMethod == "":
		fe.add("registrationMethod", msgRequired)
		return fe
	case !form.RegistrationMethod.Valid():
		fe.add("registrationMethod", msgInvalid)
		return fe
	}

	reg := form.Registration
	if form.RegistrationMethod == models.RegistrationOther {
		switch {
		case blank(reg.AlternativeRegistrationLink):
			fe.add("registration.alternative_registration_link", msgRequired)
		case !validURL(reg.AlternativeRegistrationLink):
			fe.add("registration.alternative_registration_link", msgInvalidURL)
		}
	}
	if form.RegistrationMethod == models.RegistrationStandard && reg.Questionnaire != nil {
		for i, q := range reg.Questionnaire.Questions {
			path := fmt.Sprintf("registration.questionnaire[%d]", i)
			switch {
			case blank(q.Question):
				fe.add(path, "Otázka nesmí být prázdná.")
			case (q.Data.Type == "checkbox" || q.Data.Type == "radio") && len(q.Data.Options) == 0:
				fe.add(path, "Otázka s výběrem musí mít alespoň jednu možnost.")
			}
		}
	}
	return fe
}

func validatePropagation(form models.EventForm, flags Flags) FieldErrors {
	fe := FieldErrors{}
	p := form.Propagation

	if !flags.IsInternal && blank(p.Cost) {
		fe.add("propagation.cost", msgRequired)
	}
	if p.MinimumAge != nil && *p.MinimumAge < 0 {
		fe.add("propagation.minimum_age", msgInvalid)
	}
	if p.MaximumAge != nil && *p.MaximumAge < 0 {
		fe.add("propagation.maximum_age", msgInvalid)
	}
	if p.MinimumAge != nil && p.MaximumAge != nil && *p.MinimumAge > *p.MaximumAge {
		fe.add("propagation.maximum_age", "Maximální věk musí být větší nebo roven minimálnímu.")
	}
	if !blank(p.WebURL) && !validURL(p.WebURL) {
		fe.add("propagation.web_url", msgInvalidURL)
	}

	if flags.MultiDay() {
		if blank(p.Accommodation) {
			fe.add("propagation.accommodation", msgRequired)
		}
		if len(p.Diets) == 0 {
			fe.add("propagation.diets", "Vyberte alespoň jednu možnost stravy.")
		}
	}

	if flags.IsVolunteering {
		if p.WorkingDays == nil {
			fe.add("propagation.working_days", msgRequired)
		} else if *p.WorkingDays < 0 {
			fe.add("propagation.working_days", msgInvalid)
		}
		if p.WorkingHours == nil {
			fe.add("propagation.working_hours", msgRequired)
		} else if *p.WorkingHours < 0 || *p.WorkingHours > 24 {
			fe.add("propagation.working_hours", "Zadejte počet hodin mezi 0 a 24.")
		}
	}
	return fe
}

func validateInvitation(form models.EventForm, flags Flags) FieldErrors {
	fe := FieldErrors{}
	if flags.IsInternal {
		return fe
	}
	p := form.Propagation
	if blank(p.InvitationTextIntroductory) {
		fe.add("propagation.invitation_text_introductory", msgRequired)
	}
	if blank(p.InvitationTextPracticalInformation) {
		fe.add("propagation.invitation_text_practical_information", msgRequired)
	}
	if flags.IsVolunteering && blank(p.InvitationTextWorkDescription) {
		fe.add("propagation.invitation_text_work_description", msgRequired)
	}
	return fe
}

func validateOrganizers(form models.EventForm, flags Flags) FieldErrors {
	fe := FieldErrors{}

	main := form.MainOrganizer
	switch {
	case main == nil && !flags.IsInternal:
		fe.add("main_organizer", msgRequired)
	case main != nil:
		if ok, msg := CanBeMainOrganizer(flags.Rules, flags.Event, *main, flags.Now); !ok {
			fe.add("main_organizer", msg)
		}
	}

	seen := map[int]bool{}
	for _, u := range form.OtherOrganizers {
		if main != nil && u.ID == main.ID {
			fe.add("other_organizers", "Hlavní organizátor nemůže být zároveň dalším organizátorem.")
		}
		if seen[u.ID] {
			fe.add("other_organizers", strings.TrimSpace(u.DisplayName())+" je uveden vícekrát.")
		}
		seen[u.ID] = true
	}

	p := form.Propagation
	if form.ContactPersonIsMainOrganizer {
		if main == nil && !flags.IsInternal {
			fe.add("propagation.contact_name", "Kontaktní osoba je hlavní organizátor, který není vybrán.")
		}
		if !blank(p.ContactEmail) && !validEmail(p.ContactEmail) {
			fe.add("propagation.contact_email", msgInvalidMail)
		}
		return fe
	}

	if blank(p.ContactName) {
		fe.add("propagation.contact_name", msgRequired)
	}
	switch {
	case blank(p.ContactEmail):
		fe.add("propagation.contact_email", msgRequired)
	case !validEmail(p.ContactEmail):
		fe.add("propagation.contact_email", msgInvalidMail)
	}
	return fe
}
