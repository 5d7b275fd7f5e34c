package fhir

// Encounter is the subset of the FHIR Encounter resource this pipeline reads.
type Encounter struct {
	Id      *string           `json:"id,omitempty"`
	Status  *string           `json:"status,omitempty"`
	Type    []CodeableConcept `json:"type,omitempty"`
	Subject *Reference        `json:"subject,omitempty"`
}

// Reference represents a FHIR Reference
type Reference struct {
	Reference *string `json:"reference,omitempty"`
}
