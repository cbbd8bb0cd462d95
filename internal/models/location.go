package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Coordinates is a GeoJSON point; Coordinates is [longitude, latitude]
type Coordinates struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewPoint builds a GeoJSON point from latitude and longitude
func NewPoint(lat, lon float64) *Coordinates {
	return &Coordinates{Type: "Point", Coordinates: [2]float64{lon, lat}}
}

// LocationDetails are the editable attributes of a location
type LocationDetails struct {
	Name             string       `json:"name"`
	Description      string       `json:"description,omitempty"`
	Address          string       `json:"address"`
	Region           *int         `json:"region,omitempty"`
	GPSLocation      *Coordinates `json:"gps_location,omitempty"`
	AccessibleFrom   string       `json:"accessible_from,omitempty"`
	ForBeginners     bool         `json:"for_beginners,omitempty"`
	ContactPerson    *int         `json:"contact_person,omitempty"`
	PatronPhone      string       `json:"patron_phone,omitempty"`
	VolunteeringWork string       `json:"volunteering_work,omitempty"`
}

// LocationRecord is a location as stored by the backend
type LocationRecord struct {
	ID int `json:"id"`
	LocationDetails
}

// Location is the value of an event's or opportunity's location field.
// It is either an ExistingLocation or a NewLocation.
type Location interface {
	isLocation()
}

// ExistingLocation references a location the backend already knows
type ExistingLocation struct {
	ID int `json:"id"`
}

// NewLocation is a location drafted inside a form, created on submit
type NewLocation LocationDetails

func (ExistingLocation) isLocation() {}
func (NewLocation) isLocation()      {}

// LocationField wraps a Location for JSON. A nil Value means "not set".
type LocationField struct {
	Value Location
}

// Existing returns a field referencing the location with the given id
func Existing(id int) LocationField {
	return LocationField{Value: ExistingLocation{ID: id}}
}

// IsSet reports whether a location was chosen or drafted
func (f LocationField) IsSet() bool {
	return f.Value != nil
}

// ExistingID returns the referenced id, or false for drafts and unset fields
func (f LocationField) ExistingID() (int, bool) {
	if e, ok := f.Value.(ExistingLocation); ok {
		return e.ID, true
	}
	return 0, false
}

// Draft returns the drafted location, or false
func (f LocationField) Draft() (NewLocation, bool) {
	n, ok := f.Value.(NewLocation)
	return n, ok
}

func (f LocationField) MarshalJSON() ([]byte, error) {
	switch v := f.Value.(type) {
	case nil:
		return []byte("null"), nil
	case ExistingLocation:
		return json.Marshal(v)
	case NewLocation:
		return json.Marshal(LocationDetails(v))
	default:
		return nil, fmt.Errorf("unknown location variant %T", f.Value)
	}
}

// UnmarshalJSON decodes {"id": n, ...} as ExistingLocation and any other
// object as NewLocation.
func (f *LocationField) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}

	var probe struct {
		ID *int `json:"id"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("location must be an object: %w", err)
	}
	if probe.ID != nil {
		f.Value = ExistingLocation{ID: *probe.ID}
		return nil
	}

	var details LocationDetails
	if err := json.Unmarshal(data, &details); err != nil {
		return fmt.Errorf("invalid location draft: %w", err)
	}
	f.Value = NewLocation(details)
	return nil
}
