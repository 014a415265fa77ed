package eligibility

import (
	"testing"
	"time"

	"leadscout-backend/lib/scrapers/companieshouse"

	"github.com/google/go-cmp/cmp"
)

func TestEligibleDirectors(t *testing.T) {
	today := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		officers []companieshouse.Officer
		expected []Director
	}{
		{
			name: "age boundary lands exactly on the minimum",
			officers: []companieshouse.Officer{
				{
					Name:        "EDGE, Eliot",
					OfficerRole: "director",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 8, Year: 1976},
				},
			},
			expected: []Director{{Name: "EDGE, Eliot", Age: 50}},
		},
		{
			name: "birth month later in the year knocks a year off",
			officers: []companieshouse.Officer{
				{
					Name:        "LATER, Lena",
					OfficerRole: "director",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 9, Year: 1976},
				},
			},
			expected: nil,
		},
		{
			name: "missing month defaults to january",
			officers: []companieshouse.Officer{
				{
					Name:        "YEARONLY, Yusuf",
					OfficerRole: "director",
					DateOfBirth: &companieshouse.DateOfBirth{Year: 1976},
				},
			},
			expected: []Director{{Name: "YEARONLY, Yusuf", Age: 50}},
		},
		{
			name: "resigned directors are inactive",
			officers: []companieshouse.Officer{
				{
					Name:        "GONE, Greta",
					OfficerRole: "director",
					ResignedOn:  "2020-01-31",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 1, Year: 1950},
				},
			},
			expected: nil,
		},
		{
			name: "role match is case-insensitive and exact",
			officers: []companieshouse.Officer{
				{
					Name:        "CAPS, Carol",
					OfficerRole: "Director",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 1, Year: 1960},
				},
				{
					Name:        "SEC, Sam",
					OfficerRole: "corporate-secretary",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 1, Year: 1950},
				},
			},
			expected: []Director{{Name: "CAPS, Carol", Age: 66}},
		},
		{
			name: "missing date of birth excludes the officer",
			officers: []companieshouse.Officer{
				{
					Name:        "NODOB, Nia",
					OfficerRole: "director",
				},
			},
			expected: nil,
		},
		{
			name: "structured name parts win over the flat name",
			officers: []companieshouse.Officer{
				{
					Name: "PATEL, Anita",
					NameElements: &companieshouse.NameElements{
						Title:    "Mrs",
						Forename: "Anita",
						Surname:  "Patel",
					},
					OfficerRole: "director",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 11, Year: 1958},
				},
			},
			expected: []Director{{Name: "Mrs Anita Patel", Age: 67}},
		},
		{
			name: "input order and duplicates are preserved",
			officers: []companieshouse.Officer{
				{
					Name:        "SECOND, Saul",
					OfficerRole: "director",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 2, Year: 1970},
				},
				{
					Name:        "FIRST, Fern",
					OfficerRole: "director",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 2, Year: 1940},
				},
				{
					Name:        "SECOND, Saul",
					OfficerRole: "director",
					DateOfBirth: &companieshouse.DateOfBirth{Month: 2, Year: 1970},
				},
			},
			expected: []Director{
				{Name: "SECOND, Saul", Age: 56},
				{Name: "FIRST, Fern", Age: 86},
				{Name: "SECOND, Saul", Age: 56},
			},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			got := EligibleDirectors(test.officers, 50, today)
			diff := cmp.Diff(test.expected, got)
			if diff != "" {
				t.Fatal(diff)
			}
		})
	}
}
