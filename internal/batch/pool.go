// Package batch runs one task per input file across a bounded pool of
// workers. Each worker owns its file end-to-end; failures come back as
// result values, never as panics crossing worker boundaries.
package batch

import (
	"fmt"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"
)

// Result is the outcome for one input file.
type Result struct {
	Path    string
	Err     error
	Elapsed time.Duration
}

// Task processes a single file.
type Task func(path string) error

// FindAudioFiles returns files under dir matching any of the
// comma-separated glob patterns, sorted and deduplicated.
func FindAudioFiles(dir, patterns string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, p := range strings.Split(patterns, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		matches, err := filepath.Glob(filepath.Join(dir, p))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run dispatches every file to the task across workers goroutines and
// collects exactly one result per file. Results arrive in completion
// order, not input order. workers < 1 is treated as 1.
func Run(files []string, workers int, task Task) []Result {
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				results <- runOne(path, task)
			}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	out := make([]Result, 0, len(files))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// runOne executes the task with panic recovery so a crashing worker
// reports a failed file instead of taking down the batch.
func runOne(path string, task Task) (res Result) {
	start := time.Now()
	res.Path = path
	defer func() {
		res.Elapsed = time.Since(start)
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("worker panic: %v\n%s", r, debug.Stack())
		}
	}()
	res.Err = task(path)
	return res
}

// Summarize splits results into succeeded and failed.
func Summarize(results []Result) (succeeded, failed []Result) {
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		} else {
			succeeded = append(succeeded, r)
		}
	}
	return succeeded, failed
}
