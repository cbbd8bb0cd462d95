package regform

import (
	"errors"
	"strings"
	"testing"

	apperrors "github.com/abrezinsky/bisadmin/internal/errors"
	"github.com/abrezinsky/bisadmin/internal/eventform"
	"github.com/abrezinsky/bisadmin/internal/models"
	"github.com/abrezinsky/bisadmin/internal/testutil"
)

var now = testutil.FixedNow("2024-06-01")()

func openEvent() models.Event {
	e := models.Event{ID: 10}
	e.Start = models.MustDate("2024-07-10")
	e.Registration.IsRegistrationRequired = true
	return e
}

func adultForm() Form {
	return Form{
		FirstName: "Jana",
		LastName:  "Nováková",
		Email:     "jana@example.cz",
		Phone:     "+420 777 123 456",
		Birthday:  models.MustDate("1990-03-14"),
	}
}

func fieldErrors(t *testing.T, err error) eventform.FieldErrors {
	t.Helper()
	var ve *eventform.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return ve.Fields
}

func TestValidate_Adult(t *testing.T) {
	if err := Validate(adultForm(), openEvent(), nil, now); err != nil {
		t.Errorf("expected valid form, got %v", err)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	fe := fieldErrors(t, Validate(Form{Email: "nope"}, openEvent(), nil, now))
	for _, path := range []string{"first_name", "last_name", "email", "phone", "birthday"} {
		if _, ok := fe[path]; !ok {
			t.Errorf("expected error on %s, got %v", path, fe)
		}
	}
}

func TestValidate_MinorNeedsClosePerson(t *testing.T) {
	form := adultForm()
	form.Birthday = models.MustDate("2012-06-20")

	fe := fieldErrors(t, Validate(form, openEvent(), nil, now))
	if _, ok := fe["close_person"]; !ok {
		t.Errorf("expected close_person error, got %v", fe)
	}

	form.ClosePerson = &models.ClosePerson{FirstName: "Marie", LastName: "Malá", Phone: "777000111"}
	if err := Validate(form, openEvent(), nil, now); err != nil {
		t.Errorf("expected valid form with close person, got %v", err)
	}
}

func TestValidate_FifteenthBirthdayOnStart(t *testing.T) {
	form := adultForm()
	form.Birthday = models.MustDate("2009-07-10")
	if err := Validate(form, openEvent(), nil, now); err != nil {
		t.Errorf("applicant turning 15 on the start day needs no close person: %v", err)
	}
}

func TestValidate_RequiredQuestions(t *testing.T) {
	questions := []models.Question{
		{ID: 5, Question: "Co umíš vařit?", IsRequired: true},
		{ID: 6, Question: "Poznámka", IsRequired: false},
	}
	err := Validate(adultForm(), openEvent(), questions, now)
	var ve *eventform.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := ve.Fields["answers.5"]; !ok {
		t.Errorf("expected answer error, got %v", ve.Fields)
	}
	if !strings.Contains(ve.Summary, "Co umíš vařit?") {
		t.Errorf("summary should name the question, got %q", ve.Summary)
	}

	form := adultForm()
	form.Answers = []models.Answer{{Question: 5, Answer: "guláš"}}
	if err := Validate(form, openEvent(), questions, now); err != nil {
		t.Errorf("expected valid form, got %v", err)
	}
}

func TestCheckOpen(t *testing.T) {
	if err := CheckOpen(openEvent()); err != nil {
		t.Errorf("expected open event, got %v", err)
	}

	closed := openEvent()
	closed.Registration.IsRegistrationRequired = false
	full := openEvent()
	full.Registration.IsEventFull = true
	external := openEvent()
	external.Registration.AlternativeRegistrationLink = "https://forms.example.cz"

	for name, e := range map[string]models.Event{"closed": closed, "full": full, "external": external} {
		if err := CheckOpen(e); !apperrors.Is(err, apperrors.ErrConflict) {
			t.Errorf("%s: expected conflict, got %v", name, err)
		}
	}
}

func TestToApplication(t *testing.T) {
	form := adultForm()
	form.FirstName = "  Jana "
	form.Address = &models.Address{}
	form.ClosePerson = &models.ClosePerson{FirstName: "Marie"}
	form.Answers = []models.Answer{
		{Question: 5, Answer: "guláš"},
		{Question: 99, Answer: "stará otázka"},
		{Question: 6, Answer: " "},
	}

	app := ToApplication(form, []models.Question{{ID: 5}, {ID: 6}})
	if app.FirstName != "Jana" {
		t.Errorf("names should be trimmed, got %q", app.FirstName)
	}
	if app.Address != nil {
		t.Error("blank address should be dropped")
	}
	if app.ClosePerson == nil || app.ClosePerson.FirstName != "Marie" {
		t.Errorf("close person lost: %+v", app.ClosePerson)
	}
	if len(app.Answers) != 1 || app.Answers[0].Question != 5 {
		t.Errorf("unexpected answers %+v", app.Answers)
	}
	if app.State != "" {
		t.Error("state is set by the backend")
	}
}

func TestFromUser(t *testing.T) {
	u := models.User{FirstName: "Petr", LastName: "Svoboda", Email: "petr@example.cz", Birthday: models.MustDate("1985-11-02")}
	f := FromUser(u)
	if f.FirstName != "Petr" || f.Email != "petr@example.cz" || f.Birthday != u.Birthday {
		t.Errorf("unexpected prefill %+v", f)
	}
}
