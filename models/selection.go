package models

import "fmt"

// TimeSelection is a walking time in minutes
type TimeSelection int

const (
	Minutes5  TimeSelection = 5
	Minutes10 TimeSelection = 10
	Minutes15 TimeSelection = 15
	Minutes20 TimeSelection = 20
	Minutes25 TimeSelection = 25
	Minutes30 TimeSelection = 30

	// DefaultTimeSelection is the selection active at startup
	DefaultTimeSelection = Minutes15
)

// AllTimeSelections returns the selectable walking times in ascending order
func AllTimeSelections() []TimeSelection {
	return []TimeSelection{
		Minutes5,
		Minutes10,
		Minutes15,
		Minutes20,
		Minutes25,
		Minutes30,
	}
}

// Valid reports whether t is one of the selectable walking times
func (t TimeSelection) Valid() bool {
	for _, v := range AllTimeSelections() {
		if v == t {
			return true
		}
	}
	return false
}

func (t TimeSelection) String() string {
	return fmt.Sprintf("%dmin", int(t))
}
