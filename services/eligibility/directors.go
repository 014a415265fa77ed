package eligibility

import (
	"strings"
	"time"

	"leadscout-backend/lib/scrapers/companieshouse"
)

type Director struct {
	Name string
	Age  int
}

// ageAt follows the first-of-month convention: the registry only
// publishes month and year of birth, so the age ticks over on the
// first of the birth month.
func ageAt(dob companieshouse.DateOfBirth, today time.Time) (int, bool) {
	if dob.Year == 0 {
		return 0, false
	}
	month := dob.Month
	if month == 0 {
		month = 1
	}

	age := today.Year() - dob.Year
	if int(today.Month()) < month {
		age--
	}
	return age, true
}

// EligibleDirectors returns the currently serving directors who are at
// least minAge years old, in input order. Officers without a usable
// date of birth are excluded.
func EligibleDirectors(officers []companieshouse.Officer, minAge int, today time.Time) []Director {
	var eligible []Director
	for _, officer := range officers {
		if !strings.EqualFold(officer.OfficerRole, "director") {
			continue
		}
		if officer.ResignedOn != "" {
			continue
		}
		if officer.DateOfBirth == nil {
			continue
		}
		age, ok := ageAt(*officer.DateOfBirth, today)
		if !ok || age < minAge {
			continue
		}
		eligible = append(eligible, Director{
			Name: officer.DisplayName(),
			Age:  age,
		})
	}
	return eligible
}
