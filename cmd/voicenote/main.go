// voicenote batch-transcribes a folder of voice notes. It is independent
// of the call pipeline: no diarization, no database, just transcript
// files next to your recordings.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/callsight/callsight/internal/batch"
	"github.com/callsight/callsight/internal/transcribe"
)

func main() {
	fs := flag.NewFlagSet("voicenote", flag.ExitOnError)
	pattern := fs.String("pattern", "*.mp3,*.wav,*.m4a,*.ogg,*.flac", "comma-separated glob patterns")
	model := fs.String("model", "medium", "whisper model size (tiny, base, small, medium, large)")
	language := fs.String("language", "", "language code, empty for auto-detect")
	task := fs.String("task", "transcribe", "transcribe or translate")
	outputDir := fs.String("output-dir", "", "where transcripts go (default: next to the input files)")
	workers := fs.Int("workers", 2, "parallel transcriptions")
	python := fs.String("python", "python", "python interpreter with whisper installed")
	verbose := fs.Bool("verbose", false, "print per-file progress")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: voicenote [flags] <input-dir>\n\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	inputDir := fs.Arg(0)

	if info, err := os.Stat(inputDir); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "voicenote: %s is not a directory\n", inputDir)
		os.Exit(1)
	}

	transcriber, err := transcribe.NewWhisperTranscriber(*python, transcribe.Options{
		Model:    *model,
		Language: *language,
		Task:     *task,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "voicenote: %v\n", err)
		os.Exit(1)
	}

	files, err := batch.FindAudioFiles(inputDir, *pattern)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voicenote: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "voicenote: no files matching %q under %s\n", *pattern, inputDir)
		os.Exit(1)
	}

	fmt.Printf("transcribing %d file(s) with %d worker(s), model %s\n", len(files), *workers, *model)
	start := time.Now()

	results := batch.Run(files, *workers, func(path string) error {
		if *verbose {
			fmt.Printf("  start %s\n", filepath.Base(path))
		}
		tr, err := transcriber.Transcribe(path)
		if err != nil {
			return err
		}

		dir := *outputDir
		if dir == "" {
			dir = filepath.Dir(path)
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := transcribe.WriteAll(tr, dir, stem); err != nil {
			return err
		}
		if *verbose {
			fmt.Printf("  done  %s (%.0fs of audio)\n", filepath.Base(path), tr.Duration)
		}
		return nil
	})

	succeeded, failed := batch.Summarize(results)
	fmt.Printf("\n%d succeeded, %d failed in %s\n",
		len(succeeded), len(failed), time.Since(start).Round(time.Second))
	for _, r := range failed {
		fmt.Fprintf(os.Stderr, "  FAILED %s: %v\n", filepath.Base(r.Path), r.Err)
	}
	if len(failed) > 0 {
		os.Exit(1)
	}
}
