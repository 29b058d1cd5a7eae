package participant

import (
	"time"
)

// Participant is one normalized row of the program snapshot. Optional fields
// are pointers: nil means the source cell was missing or unparseable.
type Participant struct {
	Timestamp          *time.Time `json:"timestamp"`
	FullName           string     `json:"full_name"`
	NationalID         string     `json:"national_id"` // digits only, comparison-ready
	NationalIDRaw      string     `json:"national_id_raw"`
	Phone              string     `json:"phone_number"` // digits only
	PhoneRaw           string     `json:"phone_number_raw"`
	Gender             string     `json:"gender"`
	Age                *int       `json:"age"`
	County             string     `json:"county"`
	Sector             string     `json:"sector"`
	BusinessRegistered bool       `json:"business_registered"`
	DisabilityDeclared bool       `json:"disability_declared"`
	RevenueGoodMonth   *float64   `json:"monthly_revenue_good_month"` // KES
}

// Table is an ordered snapshot of participants. Order is source order.
type Table []Participant

// Rules holds the configurable business thresholds.
type Rules struct {
	YouthMinAge int
	YouthMaxAge int
	TruthValues []string // answers counted as "yes", compared case-insensitively
}

func DefaultRules() Rules {
	return Rules{
		YouthMinAge: 18,
		YouthMaxAge: 35,
		TruthValues: []string{"YES"},
	}
}

// Columns maps logical fields to the exact header strings of the source sheet.
// The long question labels are part of the external schema contract and must
// match case- and punctuation-sensitively.
type Columns struct {
	Timestamp  string `yaml:"timestamp"`
	FullName   string `yaml:"full_name"`
	NationalID string `yaml:"national_id"`
	Phone      string `yaml:"phone_number"`
	Gender     string `yaml:"gender"`
	Age        string `yaml:"age"`
	County     string `yaml:"county"`
	Sector     string `yaml:"sector"`
	Registered string `yaml:"business_registered"`
	Disability string `yaml:"disability_declared"`
	Revenue    string `yaml:"monthly_revenue_good_month"`
}

func DefaultColumns() Columns {
	return Columns{
		Timestamp:  "Timestamp",
		FullName:   "Full Name",
		NationalID: "WHAT IS YOUR NATIONAL ID?",
		Phone:      "Phone Number",
		Gender:     "Gender",
		Age:        "Age",
		County:     "County",
		Sector:     "WHAT IS THE MAIN INDUSTRY SECTOR IN WHICH YOU OPERATE IN?",
		Registered: "IS YOUR BUSINESS REGISTERED?",
		Disability: "DO YOU IDENTIFY AS A PERSON WITH A DISABILITY? (THIS QUESTION IS OPTIONAL AND YOUR RESPONSE WILL NOT AFFECT YOUR ELIGIBILITY FOR THE PROGRAM.)",
		Revenue:    "WHAT WAS YOUR ESTIMATED MONTHLY REVENUE (KES) IN A PARTICULARLY GOOD MONTH",
	}
}

// IsYouth reports whether the participant's age falls inside the configured
// inclusive youth band. Missing age is never youth.
func (p Participant) IsYouth(rules Rules) bool {
	if p.Age == nil {
		return false
	}
	return *p.Age >= rules.YouthMinAge && *p.Age <= rules.YouthMaxAge
}

// IsFemaleYouth reports youth with canonical gender Female.
func (p Participant) IsFemaleYouth(rules Rules) bool {
	return p.IsYouth(rules) && p.Gender == "Female"
}
