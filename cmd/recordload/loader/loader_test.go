package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meddata/recordload/cmd/recordload/reader"
	"github.com/meddata/recordload/cmd/recordload/store"
)

func newTestLoader(t *testing.T, batchSize, workers int) (*LoaderService, *sqlx.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(dbPath, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init())

	// Separate connection for assertions.
	db, err := sqlx.Connect("sqlite", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdr := reader.NewReaderService(zerolog.Nop())
	return NewLoaderService(rdr, st, batchSize, workers, zerolog.Nop()), db
}

func writeBundle(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func patientBundle(id string) string {
	return fmt.Sprintf(`{"entry": [{"resource": {
		"resourceType": "Patient", "id": %q,
		"name": [{"family": "Doe", "given": ["John"]}],
		"gender": "male", "birthDate": "1990-01-01"
	}}]}`, id)
}

func countRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()
	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM "+table))
	return count
}

func TestRunLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "a.json", `{"entry": [
		{"resource": {"resourceType": "Patient", "id": "1", "name": [{"family": "Doe", "given": ["John"]}], "gender": "male", "birthDate": "1990-01-01"}},
		{"resource": {"resourceType": "Encounter", "id": "E1", "status": "completed", "subject": {"reference": "Patient:1"}}}
	]}`)
	writeBundle(t, dir, "b.json", patientBundle("2"))
	writeBundle(t, dir, "notes.txt", "not a candidate file")

	svc, db := newTestLoader(t, DefaultBatchSize, DefaultWorkerCount)
	require.NoError(t, svc.Run(dir))

	assert.Equal(t, 2, countRows(t, db, "patients"))
	assert.Equal(t, 1, countRows(t, db, "encounters"))

	var patientID string
	require.NoError(t, db.Get(&patientID, "SELECT patient_id FROM encounters WHERE encounter_id = ?", "E1"))
	assert.Equal(t, "1", patientID)
}

func TestRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeBundle(t, dir, fmt.Sprintf("p%d.json", i), patientBundle(fmt.Sprintf("%d", i)))
	}

	svc, db := newTestLoader(t, DefaultBatchSize, DefaultWorkerCount)
	require.NoError(t, svc.Run(dir))
	require.Equal(t, 5, countRows(t, db, "patients"))

	// Second run over the same directory inserts nothing new.
	require.NoError(t, svc.Run(dir))
	assert.Equal(t, 5, countRows(t, db, "patients"))
}

func TestRunSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "good.json", patientBundle("1"))
	writeBundle(t, dir, "broken.json", `{"entry": [`)
	writeBundle(t, dir, "also_good.json", patientBundle("2"))

	svc, db := newTestLoader(t, DefaultBatchSize, DefaultWorkerCount)
	require.NoError(t, svc.Run(dir))

	assert.Equal(t, 2, countRows(t, db, "patients"))
}

func TestRunSmallBatches(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 7; i++ {
		writeBundle(t, dir, fmt.Sprintf("p%d.json", i), patientBundle(fmt.Sprintf("%d", i)))
	}

	// Batch size 2 over 7 files: 4 batches, 2 workers per batch.
	svc, db := newTestLoader(t, 2, 2)
	require.NoError(t, svc.Run(dir))

	assert.Equal(t, 7, countRows(t, db, "patients"))
}

func TestRunEmptyDirectory(t *testing.T) {
	svc, db := newTestLoader(t, DefaultBatchSize, DefaultWorkerCount)
	require.NoError(t, svc.Run(t.TempDir()))
	assert.Equal(t, 0, countRows(t, db, "patients"))
}

func TestRunUnreadableDirectory(t *testing.T) {
	svc, _ := newTestLoader(t, DefaultBatchSize, DefaultWorkerCount)
	err := svc.Run(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestRunDuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "a.json", patientBundle("1"))
	writeBundle(t, dir, "b.json", patientBundle("1"))

	svc, db := newTestLoader(t, DefaultBatchSize, DefaultWorkerCount)
	require.NoError(t, svc.Run(dir))

	assert.Equal(t, 1, countRows(t, db, "patients"))
}

func TestListFilesSorted(t *testing.T) {
	dir := t.TempDir()
	writeBundle(t, dir, "b.json", patientBundle("2"))
	writeBundle(t, dir, "a.json", patientBundle("1"))
	writeBundle(t, dir, "c.json", patientBundle("3"))

	svc, _ := newTestLoader(t, DefaultBatchSize, DefaultWorkerCount)
	files, err := svc.listFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.json"), files[0])
	assert.Equal(t, filepath.Join(dir, "c.json"), files[2])
}
