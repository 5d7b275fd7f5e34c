package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/meddata/recordload/models/fhir"
)

// PatientRow is one row of the patients table.
type PatientRow struct {
	ID               string  `db:"id"`
	Name             string  `db:"name"`
	Gender           string  `db:"gender"`
	BirthDate        string  `db:"birth_date"`
	DeceasedDateTime *string `db:"deceased_datetime"`
	MaritalStatus    *string `db:"marital_status"`
	Address          *string `db:"address"`
}

// EncounterRow is one row of the encounters table. PatientID is declared as
// a logical foreign key into patients.id but is not enforced at load time.
type EncounterRow struct {
	EncounterID string `db:"encounter_id"`
	Status      string `db:"status"`
	Type        string `db:"type"`
	PatientID   string `db:"patient_id"`
}

// Result is the tagged outcome of extracting one entry: exactly one of the
// two fields is set.
type Result struct {
	Patient   *PatientRow
	Encounter *EncounterRow
}

// MissingFieldError reports a required key that was absent from a resource.
type MissingFieldError struct {
	Field        string
	ResourceType string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q in %s resource", e.Field, e.ResourceType)
}

// FromEntry maps one bundle entry to a patient or encounter row. Entries
// whose resource is neither a Patient nor an Encounter yield (nil, nil).
func FromEntry(entry fhir.BundleEntry) (*Result, error) {
	if len(entry.Resource) == 0 {
		return nil, &MissingFieldError{Field: "resource", ResourceType: "entry"}
	}

	var header fhir.ResourceHeader
	if err := json.Unmarshal(entry.Resource, &header); err != nil {
		return nil, fmt.Errorf("failed to decode resource header: %w", err)
	}

	switch header.ResourceType {
	case "Patient":
		row, err := extractPatient(entry.Resource)
		if err != nil {
			return nil, err
		}
		return &Result{Patient: row}, nil
	case "Encounter":
		row, err := extractEncounter(entry.Resource)
		if err != nil {
			return nil, err
		}
		return &Result{Encounter: row}, nil
	}

	return nil, nil
}

func extractPatient(raw json.RawMessage) (*PatientRow, error) {
	var patient fhir.Patient
	if err := json.Unmarshal(raw, &patient); err != nil {
		return nil, fmt.Errorf("failed to decode Patient resource: %w", err)
	}

	if patient.Id == nil {
		return nil, &MissingFieldError{Field: "id", ResourceType: "Patient"}
	}
	if patient.Gender == nil {
		return nil, &MissingFieldError{Field: "gender", ResourceType: "Patient"}
	}
	if patient.BirthDate == nil {
		return nil, &MissingFieldError{Field: "birthDate", ResourceType: "Patient"}
	}

	name, err := formatName(patient.Name)
	if err != nil {
		return nil, err
	}

	row := &PatientRow{
		ID:               *patient.Id,
		Name:             name,
		Gender:           *patient.Gender,
		BirthDate:        *patient.BirthDate,
		DeceasedDateTime: patient.DeceasedDateTime,
	}
	if patient.MaritalStatus != nil {
		row.MaritalStatus = patient.MaritalStatus.Text
	}
	if len(patient.Address) > 0 {
		row.Address = FormatAddress(patient.Address[0])
	}
	return row, nil
}

func extractEncounter(raw json.RawMessage) (*EncounterRow, error) {
	var encounter fhir.Encounter
	if err := json.Unmarshal(raw, &encounter); err != nil {
		return nil, fmt.Errorf("failed to decode Encounter resource: %w", err)
	}

	if encounter.Id == nil {
		return nil, &MissingFieldError{Field: "id", ResourceType: "Encounter"}
	}
	if encounter.Status == nil {
		return nil, &MissingFieldError{Field: "status", ResourceType: "Encounter"}
	}
	if encounter.Subject == nil || encounter.Subject.Reference == nil {
		return nil, &MissingFieldError{Field: "subject.reference", ResourceType: "Encounter"}
	}

	encounterType := "Unknown"
	if len(encounter.Type) > 0 && encounter.Type[0].Text != nil {
		encounterType = *encounter.Type[0].Text
	}

	return &EncounterRow{
		EncounterID: *encounter.Id,
		Status:      *encounter.Status,
		Type:        encounterType,
		PatientID:   patientIDFromReference(*encounter.Subject.Reference),
	}, nil
}

// formatName builds "Family, Given1 Given2" from the first listed name.
func formatName(names []fhir.HumanName) (string, error) {
	if len(names) == 0 {
		return "", &MissingFieldError{Field: "name", ResourceType: "Patient"}
	}
	if names[0].Family == nil {
		return "", &MissingFieldError{Field: "name.family", ResourceType: "Patient"}
	}
	if names[0].Given == nil {
		return "", &MissingFieldError{Field: "name.given", ResourceType: "Patient"}
	}
	return fmt.Sprintf("%s, %s", *names[0].Family, strings.Join(names[0].Given, " ")), nil
}

// FormatAddress flattens an address into "line, city, state, country".
// Only leading and trailing empty segments are trimmed; an empty segment
// between two present ones stays, so {line, state} renders as
// "line, , state". Downstream consumers rely on this shape.
func FormatAddress(address fhir.Address) *string {
	if len(address.Line) == 0 && address.City == nil && address.State == nil && address.Country == nil {
		return nil
	}

	segments := []string{
		strings.Join(address.Line, ", "),
		stringValue(address.City),
		stringValue(address.State),
		stringValue(address.Country),
	}
	formatted := strings.Trim(strings.Join(segments, ", "), ", ")
	return &formatted
}

// patientIDFromReference takes the substring after the last ':' of a
// "Kind:id" reference; a reference without a colon is returned whole.
func patientIDFromReference(reference string) string {
	return reference[strings.LastIndex(reference, ":")+1:]
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
