package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDate_JSONRoundTrip(t *testing.T) {
	var holder struct {
		Start Date `json:"start"`
		End   Date `json:"end"`
	}
	if err := json.Unmarshal([]byte(`{"start":"2024-07-01","end":null}`), &holder); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if holder.Start.String() != "2024-07-01" {
		t.Errorf("expected 2024-07-01, got %q", holder.Start.String())
	}
	if !holder.End.IsZero() {
		t.Error("null should decode to the zero date")
	}

	out, err := json.Marshal(holder)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(out) != `{"start":"2024-07-01","end":null}` {
		t.Errorf("unexpected JSON: %s", out)
	}
}

func TestDate_AcceptsEmptyAndTimestamps(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`""`), &d); err != nil || !d.IsZero() {
		t.Errorf("empty string should decode to zero date, got %v (%v)", d, err)
	}
	if err := json.Unmarshal([]byte(`"2023-05-04T10:00:00Z"`), &d); err != nil {
		t.Fatalf("timestamp should be accepted: %v", err)
	}
	if d.String() != "2023-05-04" {
		t.Errorf("expected 2023-05-04, got %q", d.String())
	}
	if err := json.Unmarshal([]byte(`"04.05.2023"`), &d); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestLocationField_Variants(t *testing.T) {
	var existing LocationField
	if err := json.Unmarshal([]byte(`{"id": 12, "name": "Chata"}`), &existing); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if id, ok := existing.ExistingID(); !ok || id != 12 {
		t.Errorf("expected existing location 12, got %#v", existing.Value)
	}

	var draft LocationField
	if err := json.Unmarshal([]byte(`{"name": "Louka", "address": "Brno", "gps_location": {"type": "Point", "coordinates": [16.6, 49.2]}}`), &draft); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	nl, ok := draft.Draft()
	if !ok {
		t.Fatalf("expected a location draft, got %#v", draft.Value)
	}
	if nl.Name != "Louka" || nl.GPSLocation == nil || nl.GPSLocation.Coordinates[1] != 49.2 {
		t.Errorf("unexpected draft: %+v", nl)
	}

	var unset LocationField
	if err := json.Unmarshal([]byte(`null`), &unset); err != nil || unset.IsSet() {
		t.Errorf("null should leave location unset (err=%v)", err)
	}
}

func TestLocationField_Marshal(t *testing.T) {
	out, err := json.Marshal(Existing(5))
	if err != nil || string(out) != `{"id":5}` {
		t.Errorf("unexpected existing JSON %s (%v)", out, err)
	}

	out, err = json.Marshal(LocationField{})
	if err != nil || string(out) != "null" {
		t.Errorf("unexpected unset JSON %s (%v)", out, err)
	}

	out, err = json.Marshal(LocationField{Value: NewLocation{Name: "Hrad", Address: "Praha"}})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var back LocationField
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if nl, ok := back.Draft(); !ok || nl.Name != "Hrad" {
		t.Errorf("draft did not survive JSON: %s", out)
	}
}

func TestQualification_ValidAt(t *testing.T) {
	q := Qualification{ValidSince: MustDate("2020-01-01"), ValidTill: MustDate("2099-01-01")}
	at := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	if !q.ValidAt(at) {
		t.Error("expected qualification valid in 2024")
	}
	if q.ValidAt(time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Error("expected qualification invalid before valid_since")
	}
	// inclusive on both ends
	if !q.ValidAt(time.Date(2099, 1, 1, 23, 0, 0, 0, time.UTC)) {
		t.Error("expected qualification valid on valid_till")
	}
	if !(Qualification{ValidSince: MustDate("2020-01-01")}).ValidAt(at) {
		t.Error("missing valid_till means no expiry")
	}
}

func TestUser_DisplayNameAndAge(t *testing.T) {
	u := User{FirstName: "Jana", LastName: "Nováková", Nickname: "Žabka", Birthday: MustDate("2006-07-02")}
	if u.DisplayName() != "Jana Nováková (Žabka)" {
		t.Errorf("unexpected display name %q", u.DisplayName())
	}
	if age := u.AgeOn(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)); age != 17 {
		t.Errorf("expected 17 the day before birthday, got %d", age)
	}
	if age := u.AgeOn(time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC)); age != 18 {
		t.Errorf("expected 18 on birthday, got %d", age)
	}
	if (User{}).AgeOn(time.Now()) != -1 {
		t.Error("unknown birthday should give -1")
	}
}

func TestFormFromEvent(t *testing.T) {
	organizer := &User{ID: 3}
	e := Event{
		EventCore:     EventCore{Location: Existing(1)},
		MainOrganizer: organizer,
		Registration:  EventRegistration{IsRegistrationRequired: true, AlternativeRegistrationLink: "https://forms.example"},
		Propagation:   EventPropagation{ContactPerson: &User{ID: 3}},
	}
	form := FormFromEvent(e, 1)
	if !form.Online {
		t.Error("expected online when location is the online location")
	}
	if form.RegistrationMethod != RegistrationOther {
		t.Errorf("expected other registration method, got %q", form.RegistrationMethod)
	}
	if !form.ContactPersonIsMainOrganizer {
		t.Error("expected contact person to be the main organizer")
	}

	e.Registration = EventRegistration{IsRegistrationRequired: false}
	if FormFromEvent(e, 1).RegistrationMethod != RegistrationNone {
		t.Error("expected none when registration is not required")
	}
	e.Registration = EventRegistration{IsRegistrationRequired: true, IsEventFull: true}
	if FormFromEvent(e, 1).RegistrationMethod != RegistrationFull {
		t.Error("expected full when the event is full")
	}
}
