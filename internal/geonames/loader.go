// Package geonames ingests GeoNames postal code dumps, the tab-separated
// allCountries / per-country files published at download.geonames.org, into
// the reference store.
package geonames

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"

	"github.com/postal-lookup/internal/store"
)

// BatchWriter persists parsed records. The production implementation is
// CopyWriter; tests substitute an in-memory collector.
type BatchWriter interface {
	WriteBatch(records []store.PostalRecord) error
}

// Summary reports what one load run did.
type Summary struct {
	Inserted int64
	Skipped  int64
	Elapsed  time.Duration
}

// Loader streams dump files into a BatchWriter. Parsing happens on one
// goroutine; batches are written concurrently.
type Loader struct {
	writer BatchWriter
	log    *log.Logger

	BatchSize int
	Workers   int
}

func NewLoader(writer BatchWriter, logger *log.Logger) *Loader {
	return &Loader{
		writer:    writer,
		log:       logger,
		BatchSize: 1000,
		Workers:   4,
	}
}

// LoadFile ingests one dump file, transparently handling .zip and .gz
// archives alongside plain text.
func (l *Loader) LoadFile(path string) (Summary, error) {
	start := time.Now()
	var sum Summary

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		err = l.loadZip(path, &sum)
	case ".gz":
		err = l.loadGzip(path, &sum)
	default:
		err = l.loadPlain(path, &sum)
	}

	sum.Elapsed = time.Since(start)
	if err != nil {
		return sum, err
	}

	l.log.Info("load complete",
		"file", filepath.Base(path),
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
		"elapsed", sum.Elapsed.Round(time.Millisecond))
	return sum, nil
}

func (l *Loader) loadPlain(path string, sum *Summary) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()
	return l.loadReader(f, sum)
}

func (l *Loader) loadGzip(path string, sum *Summary) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dump: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read gzip header: %w", err)
	}
	defer zr.Close()
	return l.loadReader(zr, sum)
}

func (l *Loader) loadZip(path string, sum *Summary) error {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer archive.Close()

	loaded := 0
	for _, entry := range archive.File {
		name := strings.ToLower(filepath.Base(entry.Name))
		if !strings.HasSuffix(name, ".txt") || strings.HasPrefix(name, "readme") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return fmt.Errorf("open zip entry %s: %w", entry.Name, err)
		}
		err = l.loadReader(rc, sum)
		rc.Close()
		if err != nil {
			return err
		}
		loaded++
	}
	if loaded == 0 {
		return errors.New("zip archive contains no data files")
	}
	return nil
}

// loadReader parses the stream line by line and fans batches out to the
// writer workers. Malformed lines are counted and skipped, never fatal.
func (l *Loader) loadReader(r io.Reader, sum *Summary) error {
	g, ctx := errgroup.WithContext(context.Background())
	batches := make(chan []store.PostalRecord, l.Workers)

	var inserted atomic.Int64
	for i := 0; i < l.Workers; i++ {
		g.Go(func() error {
			for batch := range batches {
				if err := l.writer.WriteBatch(batch); err != nil {
					return err
				}
				inserted.Add(int64(len(batch)))
			}
			return nil
		})
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	loggedSample := false
	batch := make([]store.PostalRecord, 0, l.BatchSize)
	send := func(records []store.PostalRecord) bool {
		select {
		case batches <- records:
			return true
		case <-ctx.Done():
			return false
		}
	}

scan:
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		record, err := ParseLine(line)
		if err != nil {
			sum.Skipped++
			if !loggedSample {
				loggedSample = true
				l.log.Warn("skipping malformed lines", "first_error", err)
			}
			continue
		}
		batch = append(batch, record)
		if len(batch) >= l.BatchSize {
			if !send(batch) {
				break scan
			}
			batch = make([]store.PostalRecord, 0, l.BatchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		close(batches)
		g.Wait()
		return fmt.Errorf("read dump: %w", err)
	}
	if len(batch) > 0 {
		send(batch)
	}
	close(batches)

	if err := g.Wait(); err != nil {
		return fmt.Errorf("write batch: %w", err)
	}
	sum.Inserted += inserted.Load()
	return nil
}

// ParseLine decodes one tab-separated dump line: country code, postal code,
// place name, three admin name/code pairs, latitude, longitude and an
// optional accuracy tier.
func ParseLine(line string) (store.PostalRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 11 {
		return store.PostalRecord{}, fmt.Errorf("want at least 11 fields, got %d", len(fields))
	}

	record := store.PostalRecord{
		CountryCode: strings.TrimSpace(fields[0]),
		PostalCode:  strings.TrimSpace(fields[1]),
		PlaceName:   strings.TrimSpace(fields[2]),
		AdminName1:  strings.TrimSpace(fields[3]),
		AdminCode1:  strings.TrimSpace(fields[4]),
		AdminName2:  strings.TrimSpace(fields[5]),
		AdminCode2:  strings.TrimSpace(fields[6]),
		AdminName3:  strings.TrimSpace(fields[7]),
		AdminCode3:  strings.TrimSpace(fields[8]),
	}
	if record.CountryCode == "" || record.PostalCode == "" {
		return store.PostalRecord{}, errors.New("missing country or postal code")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[9]), 64)
	if err != nil {
		return store.PostalRecord{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(fields[10]), 64)
	if err != nil {
		return store.PostalRecord{}, fmt.Errorf("longitude: %w", err)
	}
	record.Latitude, record.Longitude = lat, lng

	if len(fields) > 11 {
		if s := strings.TrimSpace(fields[11]); s != "" {
			tier, err := strconv.Atoi(s)
			if err != nil {
				return store.PostalRecord{}, fmt.Errorf("accuracy: %w", err)
			}
			record.Accuracy = &tier
		}
	}
	return record, nil
}
