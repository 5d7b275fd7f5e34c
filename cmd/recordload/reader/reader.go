package reader

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/meddata/recordload/cmd/recordload/extract"
	"github.com/meddata/recordload/models/fhir"
)

// FileResult carries everything extracted from one document. Err is set on
// a file-level failure (unreadable or malformed JSON), in which case both
// row slices are empty.
type FileResult struct {
	File       string
	Patients   []extract.PatientRow
	Encounters []extract.EncounterRow
	Err        error
}

// ReaderService parses bundle documents and partitions their entries into
// patient and encounter rows.
type ReaderService struct {
	log zerolog.Logger
}

// NewReaderService creates a new ReaderService
func NewReaderService(log zerolog.Logger) *ReaderService {
	return &ReaderService{log: log}
}

// ReadFile parses one JSON document and extracts its entries in document
// order. A file that cannot be read or parsed yields a FileResult with Err
// set and no rows; an entry that fails extraction is logged and skipped
// without affecting its siblings.
func (svc *ReaderService) ReadFile(path string) FileResult {
	data, err := os.ReadFile(path)
	if err != nil {
		svc.log.Error().Err(err).Str("file", path).Msg("Failed to read file")
		return FileResult{File: path, Err: fmt.Errorf("failed to read file %s: %w", path, err)}
	}

	var bundle fhir.Bundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		svc.log.Error().Err(err).Str("file", path).Msg("Failed to parse file")
		return FileResult{File: path, Err: fmt.Errorf("failed to parse file %s: %w", path, err)}
	}

	result := FileResult{File: path}
	for i, entry := range bundle.Entry {
		extracted, err := extract.FromEntry(entry)
		if err != nil {
			svc.log.Error().Err(err).
				Str("file", path).
				Int("entry", i).
				Msg("Failed to extract entry")
			continue
		}
		if extracted == nil {
			continue
		}
		if extracted.Patient != nil {
			result.Patients = append(result.Patients, *extracted.Patient)
		}
		if extracted.Encounter != nil {
			result.Encounters = append(result.Encounters, *extracted.Encounter)
		}
	}

	svc.log.Debug().
		Str("file", path).
		Int("patients", len(result.Patients)).
		Int("encounters", len(result.Encounters)).
		Msg("Extracted file")

	return result
}
