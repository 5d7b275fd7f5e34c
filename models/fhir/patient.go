package fhir

// Patient is the subset of the FHIR Patient resource this pipeline reads.
// Required fields are pointers so that an absent key can be told apart from
// an empty value.
type Patient struct {
	Id               *string          `json:"id,omitempty"`
	Name             []HumanName      `json:"name,omitempty"`
	Gender           *string          `json:"gender,omitempty"`
	BirthDate        *string          `json:"birthDate,omitempty"`
	DeceasedDateTime *string          `json:"deceasedDateTime,omitempty"`
	MaritalStatus    *CodeableConcept `json:"maritalStatus,omitempty"`
	Address          []Address        `json:"address,omitempty"`
}

// HumanName represents a FHIR HumanName
type HumanName struct {
	Family *string  `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

// Address represents a FHIR Address
type Address struct {
	Line    []string `json:"line,omitempty"`
	City    *string  `json:"city,omitempty"`
	State   *string  `json:"state,omitempty"`
	Country *string  `json:"country,omitempty"`
}

// CodeableConcept represents a FHIR CodeableConcept; only the display text
// is read here.
type CodeableConcept struct {
	Text *string `json:"text,omitempty"`
}
