package companieshouse

import (
	"regexp"
	"strings"
)

type SearchQuery struct {
	Query        string
	ItemsPerPage int
	StartIndex   int
	// restrict results to companies that are still on the register
	ActiveOnly bool
}

type SearchPage struct {
	Items        []SearchItem `json:"items"`
	TotalResults int          `json:"total_results"`
	ItemsPerPage int          `json:"items_per_page"`
	StartIndex   int          `json:"start_index"`
}

type SearchItem struct {
	Title         string `json:"title"`
	CompanyNumber string `json:"company_number"`
	CompanyStatus string `json:"company_status"`
}

type Address struct {
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	Locality     string `json:"locality"`
	Region       string `json:"region"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// Format renders the address as a single comma separated line,
// skipping parts the registry left empty.
func (a Address) Format() string {
	parts := []string{
		a.AddressLine1,
		a.AddressLine2,
		a.Locality,
		a.Region,
		a.PostalCode,
		a.Country,
	}
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

type LastAccounts struct {
	MadeUpTo string `json:"made_up_to"`
}

type Accounts struct {
	LastAccounts LastAccounts `json:"last_accounts"`
}

type Profile struct {
	CompanyName             string   `json:"company_name"`
	CompanyNumber           string   `json:"company_number"`
	CompanyStatus           string   `json:"company_status"`
	DateOfCreation          string   `json:"date_of_creation"`
	Type                    string   `json:"type"`
	SicCodes                []string `json:"sic_codes"`
	RegisteredOfficeAddress Address  `json:"registered_office_address"`
	Accounts                Accounts `json:"accounts"`
}

type DateOfBirth struct {
	// the registry withholds the day of birth, only month and year
	// are published
	Month int `json:"month"`
	Year  int `json:"year"`
}

type NameElements struct {
	Title    string `json:"title"`
	Forename string `json:"forename"`
	Surname  string `json:"surname"`
}

type Officer struct {
	Name         string        `json:"name"`
	NameElements *NameElements `json:"name_elements"`
	OfficerRole  string        `json:"officer_role"`
	ResignedOn   string        `json:"resigned_on"`
	DateOfBirth  *DateOfBirth  `json:"date_of_birth"`
}

// DisplayName prefers the structured name parts over the flat
// "SURNAME, Forename" field when the registry provides them.
func (o Officer) DisplayName() string {
	if o.NameElements != nil {
		parts := []string{
			o.NameElements.Title,
			o.NameElements.Forename,
			o.NameElements.Surname,
		}
		var kept []string
		for _, p := range parts {
			if p != "" {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			return strings.Join(kept, " ")
		}
	}
	return o.Name
}

type OfficerPage struct {
	Items        []Officer `json:"items"`
	ActiveCount  int       `json:"active_count"`
	TotalResults int       `json:"total_results"`
}

type Filing struct {
	Category    string         `json:"category"`
	Date        string         `json:"date"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data"`
}

type FilingPage struct {
	Items        []Filing `json:"items"`
	TotalResults int      `json:"total_results"`
}

var companyNumberRegex = regexp.MustCompile(`\((\d{8})\)`)

// ExtractCompanyNumber pulls an 8 digit registration number out of a
// free-form label like "Acme Waste Ltd (01234567)". Returns "" when
// the label carries no number.
func ExtractCompanyNumber(label string) string {
	groups := companyNumberRegex.FindStringSubmatch(label)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}
