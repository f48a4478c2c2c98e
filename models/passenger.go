package models

import (
	"fmt"
	"strings"
)

// Sex is the recorded gender of a passenger.
type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

// Sexes lists every Sex in canonical order.
var Sexes = []Sex{Female, Male}

// ParseSex accepts "male"/"female" in any case.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return Male, nil
	case "female", "f":
		return Female, nil
	}
	return "", fmt.Errorf("unknown sex %q", s)
}

// Title returns the capitalised display form ("Male", "Female").
func (s Sex) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Class is the ticket class of a passenger.
type Class string

const (
	First  Class = "First"
	Second Class = "Second"
	Third  Class = "Third"
)

// Classes lists every Class in canonical order.
var Classes = []Class{First, Second, Third}

// ParseClass accepts the class name ("First") or its ordinal ("1").
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "1", "1st":
		return First, nil
	case "second", "2", "2nd":
		return Second, nil
	case "third", "3", "3rd":
		return Third, nil
	}
	return "", fmt.Errorf("unknown passenger class %q", s)
}

// ParseSurvived accepts 0/1, true/false and yes/no.
func ParseSurvived(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("unknown survived flag %q", s)
}

// NullFloat is a numeric value that may be missing.
type NullFloat struct {
	Value float64
	Valid bool
}

// Float wraps a present value.
func Float(v float64) NullFloat { return NullFloat{Value: v, Valid: true} }

// Null is a missing value.
func Null() NullFloat { return NullFloat{} }

// RawPassenger holds one row as supplied by a dataset provider, before
// imputation and bucketing.
type RawPassenger struct {
	Age      NullFloat
	Fare     NullFloat
	Sex      Sex
	Class    Class
	Survived bool
}

// Passenger is a prepared row: numeric gaps filled and ordinal groups derived.
type Passenger struct {
	Age         float64 `json:"age"`
	Fare        float64 `json:"fare"`
	AgeImputed  bool    `json:"ageImputed,omitempty"`
	FareImputed bool    `json:"fareImputed,omitempty"`
	Sex         Sex     `json:"sex"`
	Class       Class   `json:"class"`
	Survived    bool    `json:"survived"`
	AgeGroup    string  `json:"ageGroup"`
	FareGroup   string  `json:"fareGroup"`
}

// SurvivedValue returns the outcome as 1 or 0 so it can be averaged.
func (p Passenger) SurvivedValue() float64 {
	if p.Survived {
		return 1
	}
	return 0
}
