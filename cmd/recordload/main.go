package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/meddata/recordload/cmd/recordload/config"
	"github.com/meddata/recordload/cmd/recordload/loader"
	"github.com/meddata/recordload/cmd/recordload/reader"
	"github.com/meddata/recordload/cmd/recordload/store"
	"github.com/meddata/recordload/util"
)

func main() {
	startTime := time.Now()

	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).With().Timestamp().Caller().Logger()
	log.Debug().Msg("Starting recordload")

	if err := godotenv.Load(".env"); err != nil {
		log.Debug().Msg("No .env file found, using environment")
	}
	cfg := config.Load()

	st, err := store.Open(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Stack().Err(errors.WithStack(err)).Msg("Failed to open store")
	}
	defer st.Close()

	if err := st.Init(); err != nil {
		log.Fatal().Stack().Err(errors.WithStack(err)).Msg("Failed to initialize schema")
	}

	rdr := reader.NewReaderService(log)
	svc := loader.NewLoaderService(rdr, st, cfg.BatchSize, cfg.WorkerCount, log)

	directory := util.GetAbsolutePath(cfg.DirectoryPath)
	if err := svc.Run(directory); err != nil {
		log.Fatal().Stack().Err(errors.WithStack(err)).Msg("Failed to process directory")
	}

	log.Debug().Msgf("Execution time: %s", time.Since(startTime))
}
