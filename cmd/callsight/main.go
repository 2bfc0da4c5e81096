package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/callsight/callsight/internal/analyze"
	"github.com/callsight/callsight/internal/archive"
	"github.com/callsight/callsight/internal/audio"
	"github.com/callsight/callsight/internal/config"
	"github.com/callsight/callsight/internal/dashboard"
	"github.com/callsight/callsight/internal/diarize"
	"github.com/callsight/callsight/internal/logger"
	"github.com/callsight/callsight/internal/pipeline"
	"github.com/callsight/callsight/internal/sheet"
	"github.com/callsight/callsight/internal/store"
	"github.com/callsight/callsight/internal/transcribe"
	"github.com/callsight/callsight/internal/tui"
	"github.com/callsight/callsight/internal/types"
	"github.com/callsight/callsight/internal/vector"
)

const usageText = `callsight <command> [flags]

Commands:
  ingest      normalize source recordings into the work dir
  diarize     produce speaker turns for normalized recordings
  transcribe  produce transcripts (text, JSON, SRT)
  analyze     sentiment + PII redaction over transcripts
  store       upsert records and embeddings into the database
  run         all of the above in sequence
  dashboard   serve the read-only web UI
  browse      read-only terminal browser over stored calls

Common flags:
  -config path    settings file (default config.yaml)
  -force          reprocess inputs whose outputs already exist
`

func main() {
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "settings file")
	force := fs.Bool("force", false, "reprocess inputs whose outputs already exist")
	watch := fs.Bool("watch", false, "ingest: keep watching the source dir for new files")
	fs.Parse(os.Args[2:])

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || command == "browse" {
			cfg = config.Default()
		} else {
			log.WithError(err).Fatal("failed to load config")
		}
	}

	if command == "dashboard" {
		runDashboard(cfg, log)
		return
	}
	if command == "browse" {
		runBrowse(cfg, log)
		return
	}

	p, cleanup, err := buildPipeline(command, cfg, log, *force)
	if err != nil {
		log.WithError(err).Fatal("initialization failed")
	}
	defer cleanup()

	switch command {
	case "ingest":
		runIngest(cfg, log, *force, *watch)
	case "diarize":
		runStage(p, log, "diarize", p.DiarizeRecord)
	case "transcribe":
		runStage(p, log, "transcribe", p.TranscribeRecord)
	case "analyze":
		runStage(p, log, "analyze", p.AnalyzeRecord)
	case "store":
		runStage(p, log, "store", p.StoreRecord)
	case "run":
		runAll(p, cfg, log)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usageText)
		os.Exit(2)
	}
}

// buildPipeline wires only what the command needs; the dashboard and
// browse commands open the store themselves.
func buildPipeline(command string, cfg *config.Config, log *logger.Logger, force bool) (*pipeline.Pipeline, func(), error) {
	cleanup := func() {}
	p := pipeline.New(cfg, log).WithForce(force)

	if cfg.Paths.Sheet != "" {
		meta, err := sheet.Load(cfg.Paths.Sheet)
		if err != nil {
			log.WithError(err).Warn("metadata sheet unavailable, continuing without it")
		} else {
			p.WithMetadata(meta)
		}
	}

	normalizer := audio.NewNormalizer(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.Formats)
	wavDir := filepath.Join(cfg.Paths.WorkDir, "wav")
	p.WithIngester(audio.NewIngester(normalizer, wavDir, force, log))

	p.WithDiarizer(diarize.NewPyannoteProvider(cfg.Diarize.Python, cfg.Diarize.Model))

	transcriber, err := transcribe.NewWhisperTranscriber(cfg.Diarize.Python, transcribe.Options{
		Model:    cfg.Whisper.Model,
		Language: cfg.Whisper.Language,
		Task:     cfg.Whisper.Task,
		Device:   cfg.Whisper.Device,
	})
	if err != nil {
		return nil, cleanup, err
	}
	p.WithTranscriber(transcriber)

	var scorer analyze.Scorer = analyze.LexiconScorer{}
	if cfg.Analyze.SentimentURL != "" {
		scorer = analyze.NewHTTPScorer(cfg.Analyze.SentimentURL)
	}
	p.WithAnalyzer(analyze.NewAnalyzer(scorer, analyze.NewRedactor(cfg.Analyze.Placeholder)))

	needsStore := command == "store" || command == "run"
	if needsStore {
		db, err := store.Open(context.Background(), cfg)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { db.Close() }
		p.WithStore(db)
		p.WithEmbedder(newEmbedder(cfg))

		if cfg.Archive.CredentialsFile != "" {
			drv, err := archive.NewDriveClient(
				cfg.Archive.CredentialsFile, cfg.Archive.TokenFile, cfg.Archive.FolderName)
			if err != nil {
				log.WithError(err).Warn("archive unavailable, storing locally only")
			} else {
				p.WithArchiver(drv)
			}
		}
	}

	return p, cleanup, nil
}

func newEmbedder(cfg *config.Config) vector.Embedder {
	if cfg.Store.Embedding.URL != "" {
		return vector.NewHTTPEmbedder(cfg.Store.Embedding.URL, cfg.Store.Embedding.Dim)
	}
	return vector.NewHashEmbedder(cfg.Store.Embedding.Dim)
}

func runIngest(cfg *config.Config, log *logger.Logger, force, watchMode bool) {
	normalizer := audio.NewNormalizer(cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.Formats)
	ing := audio.NewIngester(normalizer, filepath.Join(cfg.Paths.WorkDir, "wav"), force, log)

	records, err := ing.Run(cfg.Paths.SourceDir)
	if err != nil {
		log.WithError(err).Fatal("ingest failed")
	}
	reportFailures(log, "ingest", records)

	if !watchMode {
		return
	}
	stop := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint
		close(stop)
	}()
	ch, err := ing.Watch(cfg.Paths.SourceDir, stop)
	if err != nil {
		log.WithError(err).Fatal("watch failed")
	}
	log.Info("watching for new recordings")
	for rec := range ch {
		if rec.Status == types.StatusFailed {
			log.WithCall(rec.ID).WithField("error", rec.Error).Warn("ingest failed")
		} else {
			log.WithCall(rec.ID).Info("ingested")
		}
	}
}

// runStage applies one stage function to every record discovered in the
// work dir, isolating failures per file.
func runStage(p *pipeline.Pipeline, log *logger.Logger, name string, fn func(*types.CallRecord) error) {
	records, err := p.Discover()
	if err != nil {
		log.WithError(err).Fatal("discovery failed")
	}
	failed := 0
	for _, rec := range records {
		if err := fn(rec); err != nil {
			failed++
			rec.Status = types.StatusFailed
			rec.FailedAt = name
			rec.Error = err.Error()
			log.WithCall(rec.ID).WithStage(name).WithField("error", err.Error()).Warn("failed")
		}
	}
	log.WithStage(name).Infof("%d processed, %d failed", len(records)-failed, failed)
}

func runAll(p *pipeline.Pipeline, cfg *config.Config, log *logger.Logger) {
	records, err := p.Run(cfg.Paths.SourceDir)
	if err != nil {
		log.WithError(err).Fatal("pipeline run failed")
	}
	reportFailures(log, "run", records)
}

func reportFailures(log *logger.Logger, stage string, records []*types.CallRecord) {
	failed := 0
	for _, rec := range records {
		if rec.Status == types.StatusFailed {
			failed++
			log.WithCall(rec.ID).WithStage(rec.FailedAt).
				WithField("error", rec.Error).Warn("record failed")
		}
	}
	log.WithStage(stage).Infof("%d succeeded, %d failed", len(records)-failed, failed)
}

func runDashboard(cfg *config.Config, log *logger.Logger) {
	db, err := store.Open(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer db.Close()

	logBuf := dashboard.NewLogBuffer()
	log.Logger.SetOutput(io.MultiWriter(os.Stdout, logBuf))

	srv := dashboard.New(db, newEmbedder(cfg), logBuf)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint
		log.Info("shutting down")
		srv.Shutdown()
	}()

	log.Infof("dashboard listening on %s:%d", cfg.Dashboard.Host, cfg.Dashboard.Port)
	if err := srv.Listen(cfg.Dashboard.Host, cfg.Dashboard.Port); err != nil {
		log.WithError(err).Fatal("dashboard failed")
	}
}

func runBrowse(cfg *config.Config, log *logger.Logger) {
	db, err := store.Open(context.Background(), cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer db.Close()

	if _, err := tea.NewProgram(tui.New(db), tea.WithAltScreen()).Run(); err != nil {
		log.WithError(err).Fatal("browse failed")
	}
}
