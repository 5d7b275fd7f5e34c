package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"

	"github.com/meddata/recordload/cmd/recordload/reader"
	"github.com/meddata/recordload/cmd/recordload/store"
)

const (
	DefaultBatchSize   = 1000
	DefaultWorkerCount = 4
)

// LoaderService walks a directory of JSON documents, fans file parsing out
// over a fixed worker pool in batches, and funnels every extracted row
// through a single goroutine into the store.
type LoaderService struct {
	reader    *reader.ReaderService
	store     *store.Store
	batchSize int
	workers   int
	log       zerolog.Logger
}

// NewLoaderService creates a new LoaderService. Non-positive batch or
// worker sizes fall back to the defaults.
func NewLoaderService(rdr *reader.ReaderService, st *store.Store, batchSize, workers int, log zerolog.Logger) *LoaderService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = DefaultWorkerCount
	}
	return &LoaderService{
		reader:    rdr,
		store:     st,
		batchSize: batchSize,
		workers:   workers,
		log:       log,
	}
}

// Run processes every .json file in the directory. Per-file and per-row
// failures are logged and skipped; only an unreadable directory aborts the
// run.
func (svc *LoaderService) Run(directory string) error {
	files, err := svc.listFiles(directory)
	if err != nil {
		return err
	}

	totalBatches := (len(files) + svc.batchSize - 1) / svc.batchSize
	var patientsInserted, encountersInserted, filesFailed int

	for i := 0; i < len(files); i += svc.batchSize {
		batch := files[i:min(i+svc.batchSize, len(files))]
		results := svc.readBatch(batch)

		for _, result := range results {
			if result.Err != nil {
				// Already logged by the reader.
				filesFailed++
				continue
			}
			patientsInserted += svc.store.InsertPatients(result.Patients)
			encountersInserted += svc.store.InsertEncounters(result.Encounters)
		}

		svc.log.Info().
			Int("batch", i/svc.batchSize+1).
			Int("total_batches", totalBatches).
			Msg("Processed batch")
	}

	svc.log.Info().
		Int("files", len(files)).
		Int("files_failed", filesFailed).
		Int("patients_inserted", patientsInserted).
		Int("encounters_inserted", encountersInserted).
		Msg("Completed run")

	return nil
}

// readBatch reads one batch of files concurrently. Workers share nothing:
// each file is parsed independently and its result sent back to the
// collecting goroutine, which is the only place store writes happen.
func (svc *LoaderService) readBatch(files []string) []reader.FileResult {
	jobs := make(chan string)
	results := make(chan reader.FileResult)

	var wg sync.WaitGroup
	for w := 0; w < svc.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range jobs {
				results <- svc.reader.ReadFile(file)
			}
		}()
	}

	go func() {
		for _, file := range files {
			jobs <- file
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]reader.FileResult, 0, len(files))
	for result := range results {
		collected = append(collected, result)
	}
	return collected
}

// listFiles returns the .json files in the directory, sorted for stable
// batch numbering.
func (svc *LoaderService) listFiles(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", directory, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(directory, entry.Name()))
	}
	slices.Sort(files)

	svc.log.Info().
		Int("files", len(files)).
		Str("directory", directory).
		Msg("Enumerated input files")

	return files, nil
}
