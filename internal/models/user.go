package models

import (
	"strings"
	"time"
)

// Qualification is a qualification held by a user, valid for a date range
type Qualification struct {
	Category   Category `json:"category"`
	ValidSince Date     `json:"valid_since"`
	ValidTill  Date     `json:"valid_till"`
}

// ValidAt reports whether the qualification is valid on the day of at.
// A zero ValidTill means no expiry.
func (q Qualification) ValidAt(at time.Time) bool {
	day := DateOf(at).Time
	if !q.ValidSince.IsZero() && day.Before(q.ValidSince.Time) {
		return false
	}
	if !q.ValidTill.IsZero() && day.After(q.ValidTill.Time) {
		return false
	}
	return true
}

// User is a BIS user as seen by organizers
type User struct {
	ID             int             `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Nickname       string          `json:"nickname,omitempty"`
	Email          string          `json:"email,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Birthday       Date            `json:"birthday"`
	Qualifications []Qualification `json:"qualifications,omitempty"`
}

// DisplayName renders "First Last (Nick)" the way organizer pickers show it
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.Nickname != "" {
		if name == "" {
			return u.Nickname
		}
		return name + " (" + u.Nickname + ")"
	}
	return name
}

// AgeOn returns the user's age in whole years on the given day, or -1 when
// the birthday is unknown.
func (u User) AgeOn(day time.Time) int {
	if u.Birthday.IsZero() {
		return -1
	}
	return AgeOn(u.Birthday, day)
}

// AgeOn computes whole years between birthday and day
func AgeOn(birthday Date, day time.Time) int {
	by, bm, bd := birthday.Date()
	y, m, d := day.Date()
	age := y - by
	if m < bm || (m == bm && d < bd) {
		age--
	}
	return age
}

// UserFilter narrows user searches
type UserFilter struct {
	Search   string
	IDs      []int
	Page     int
	PageSize int
}
