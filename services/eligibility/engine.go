package eligibility

type Source string

const (
	SourceNone           Source = ""
	SourceCompaniesHouse Source = "companies_house"
	SourceHMRC           Source = "hmrc"
)

type Criteria struct {
	// minimum age of at least one serving director
	MinAge int `json:"min_age"`
	// inclusive turnover bounds a source must fall inside to qualify
	MinTurnover float64 `json:"min_turnover"`
	MaxTurnover float64 `json:"max_turnover"`
}

func DefaultCriteria() Criteria {
	return Criteria{
		MinAge:      50,
		MinTurnover: 1_000_000,
		MaxTurnover: 1_000_000_000,
	}
}

// Decision is the outcome for one company along with the evidence
// that produced it.
type Decision struct {
	Accepted bool
	// the turnover source that qualified, registry figures win ties
	Basis          Source
	CompaniesHouse Turnover
	HMRC           Turnover
	Directors      []Director
}

// QualifyingTurnover reports whether a parsed figure lies inside the
// criteria's inclusive turnover bounds.
func QualifyingTurnover(t Turnover, c Criteria) bool {
	return t.Known && t.Amount >= c.MinTurnover && t.Amount <= c.MaxTurnover
}

// Decide combines both turnover sources and the eligible director list
// into a single accept/reject decision. Turnover is evaluated first,
// directors second, and either failing alone rejects the company.
func Decide(ch, hmrc Turnover, directors []Director, c Criteria) Decision {
	d := Decision{
		CompaniesHouse: ch,
		HMRC:           hmrc,
		Directors:      directors,
	}

	switch {
	case QualifyingTurnover(ch, c):
		d.Basis = SourceCompaniesHouse
	case QualifyingTurnover(hmrc, c):
		d.Basis = SourceHMRC
	default:
		return d
	}

	if len(directors) == 0 {
		return d
	}

	d.Accepted = true
	return d
}
