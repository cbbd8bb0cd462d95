package eventform

import (
	"github.com/abrezinsky/bisadmin/internal/models"
)

// ToPayload maps a form to the exact body the backend accepts. UI-only
// fields are dropped, users are replaced by their ids and the registration
// block is normalized by registrationMethod.
func ToPayload(form models.EventForm, onlineLocationID int) models.EventPayload {
	p := models.EventPayload{
		EventCore:    form.EventCore,
		Registration: form.Registration,
		Propagation: models.PropagationPayload{
			PropagationCore: form.Propagation.PropagationCore,
		},
	}

	if form.MainOrganizer != nil {
		id := form.MainOrganizer.ID
		p.MainOrganizer = &id
	}
	p.OtherOrganizers = make([]int, 0, len(form.OtherOrganizers))
	for _, u := range form.OtherOrganizers {
		p.OtherOrganizers = append(p.OtherOrganizers, u.ID)
	}
	switch {
	case form.ContactPersonIsMainOrganizer:
		p.Propagation.ContactPerson = p.MainOrganizer
	case form.Propagation.ContactPerson != nil:
		id := form.Propagation.ContactPerson.ID
		p.Propagation.ContactPerson = &id
	}
	if p.AdministrationUnits == nil {
		p.AdministrationUnits = []int{}
	}
	if p.Propagation.Diets == nil {
		p.Propagation.Diets = []int{}
	}

	reg := &p.Registration
	switch form.RegistrationMethod {
	case models.RegistrationNone:
		reg.IsRegistrationRequired = false
		reg.IsEventFull = false
		reg.AlternativeRegistrationLink = ""
		reg.Questionnaire = nil
	case models.RegistrationStandard:
		reg.IsRegistrationRequired = true
		reg.IsEventFull = false
		reg.AlternativeRegistrationLink = ""
	case models.RegistrationOther:
		reg.IsRegistrationRequired = true
		reg.IsEventFull = false
		reg.Questionnaire = nil
	case models.RegistrationFull:
		reg.IsEventFull = true
	}

	if form.Online {
		p.Location = models.Existing(onlineLocationID)
	} else {
		p.OnlineLink = ""
	}

	if p.StartTime != nil && *p.StartTime == "" {
		p.StartTime = nil
	}
	return p
}
