// Package regform validates the end-user registration form of an event and
// maps it to the application the backend stores.
package regform

import (
	"fmt"
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/models"
)

// ClosePersonAge is the age below which an applicant needs a close person
const ClosePersonAge = 15

// StepName is the single step a registration draft is stored under
const StepName = "registration"

// Form is what an applicant fills in
type Form struct {
	FirstName              string              `json:"first_name"`
	LastName               string              `json:"last_name"`
	Nickname               string              `json:"nickname"`
	Email                  string              `json:"email"`
	Phone                  string              `json:"phone"`
	Birthday               models.Date         `json:"birthday"`
	HealthInsuranceCompany *int                `json:"health_insurance_company"`
	Address                *models.Address     `json:"address"`
	ClosePerson            *models.ClosePerson `json:"close_person"`
	Note                   string              `json:"note"`
	Answers                []models.Answer     `json:"answers"`
}

var labels = map[string]string{
	"first_name":               "Jméno",
	"last_name":                "Příjmení",
	"email":                    "E-mail",
	"phone":                    "Telefon",
	"birthday":                 "Datum narození",
	"health_insurance_company": "Zdravotní pojišťovna",
	"close_person":             "Blízká osoba",
	"close_person.email":       "E-mail blízké osoby",
}

// CheckOpen reports whether the event accepts registrations through bisadmin
func CheckOpen(e models.Event) error {
	reg := e.Registration
	switch {
	case !reg.IsRegistrationRequired:
		return apperrors.Conflict("Na tuto akci se není potřeba přihlašovat.")
	case reg.IsEventFull:
		return apperrors.Conflict("Akce je plně obsazená.")
	case reg.AlternativeRegistrationLink != "":
		return apperrors.Conflict("Na tuto akci se přihlašuje přes " + reg.AlternativeRegistrationLink)
	}
	return nil
}

// NeedsClosePerson reports whether the applicant is younger than
// ClosePersonAge on the event start
func NeedsClosePerson(birthday models.Date, start models.Date) bool {
	if birthday.IsZero() || start.IsZero() {
		return false
	}
	return models.AgeOn(birthday, start.Time) < ClosePersonAge
}

// Validate checks the form against the event and its questionnaire. It
// returns nil or an *eventform.ValidationError.
func Validate(form Form, e models.Event, questions []models.Question, now time.Time) error {
	fe := eventform.FieldErrors{}
	add := func(path, msg string) {
		if _, ok := fe[path]; !ok {
			fe[path] = msg
		}
	}

	for path, v := range map[string]string{
		"first_name": form.FirstName,
		"last_name":  form.LastName,
		"email":      form.Email,
		"phone":      form.Phone,
	} {
		if strings.TrimSpace(v) == "" {
			add(path, "Toto pole je povinné.")
		}
	}
	if form.Email != "" && !validEmail(form.Email) {
		add("email", "Zadejte platný e-mail.")
	}
	switch {
	case form.Birthday.IsZero():
		add("birthday", "Toto pole je povinné.")
	case form.Birthday.After(now):
		add("birthday", "Datum narození nemůže být v budoucnosti.")
	}

	if NeedsClosePerson(form.Birthday, e.Start) {
		cp := form.ClosePerson
		switch {
		case cp == nil || strings.TrimSpace(cp.FirstName) == "" || strings.TrimSpace(cp.LastName) == "":
			add("close_person", fmt.Sprintf("Účastníci mladší %d let musí uvést blízkou osobu.", ClosePersonAge))
		case strings.TrimSpace(cp.Email) == "" && strings.TrimSpace(cp.Phone) == "":
			add("close_person", "Uveďte e-mail nebo telefon blízké osoby.")
		case cp.Email != "" && !validEmail(cp.Email):
			add("close_person.email", "Zadejte platný e-mail.")
		}
	}

	answers := make(map[int]string, len(form.Answers))
	for _, a := range form.Answers {
		answers[a.Question] = a.Answer
	}
	questionLabels := map[string]string{}
	for _, q := range questions {
		if q.IsRequired && strings.TrimSpace(answers[q.ID]) == "" {
			path := answerPath(q.ID)
			add(path, "Odpověď je povinná.")
			questionLabels[path] = q.Question
		}
	}

	if len(fe) == 0 {
		return nil
	}

	paths := make([]string, 0, len(fe))
	for p := range fe {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		switch {
		case labels[p] != "":
			names = append(names, labels[p])
		case questionLabels[p] != "":
			names = append(names, questionLabels[p])
		default:
			names = append(names, p)
		}
	}
	return &eventform.ValidationError{
		Fields:  fe,
		Steps:   []string{StepName},
		Summary: "Přihláška obsahuje chyby: " + strings.Join(names, ", "),
	}
}

func answerPath(questionID int) string {
	return "answers." + strconv.Itoa(questionID)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil && addr.Name == "" && strings.Contains(addr.Address, ".")
}

// ToApplication maps a valid form to the application payload. Answers to
// questions the event no longer asks are dropped, blank optional blocks
// become null.
func ToApplication(form Form, questions []models.Question) models.Application {
	app := models.Application{
		FirstName:              strings.TrimSpace(form.FirstName),
		LastName:               strings.TrimSpace(form.LastName),
		Nickname:               strings.TrimSpace(form.Nickname),
		Email:                  strings.TrimSpace(form.Email),
		Phone:                  strings.TrimSpace(form.Phone),
		Birthday:               form.Birthday,
		HealthInsuranceCompany: form.HealthInsuranceCompany,
		Note:                   strings.TrimSpace(form.Note),
		Answers:                []models.Answer{},
	}

	if a := form.Address; a != nil && (a.Street != "" || a.City != "" || a.ZipCode != "") {
		addr := *a
		app.Address = &addr
	}
	if cp := form.ClosePerson; cp != nil && (cp.FirstName != "" || cp.LastName != "" || cp.Email != "" || cp.Phone != "") {
		person := *cp
		app.ClosePerson = &person
	}

	asked := make(map[int]bool, len(questions))
	for _, q := range questions {
		asked[q.ID] = true
	}
	for _, a := range form.Answers {
		if asked[a.Question] && strings.TrimSpace(a.Answer) != "" {
			app.Answers = append(app.Answers, a)
		}
	}
	return app
}

// FromUser prefills a form with a logged-in user's details
func FromUser(u models.User) Form {
	return Form{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Phone:     u.Phone,
		Birthday:  u.Birthday,
	}
}
