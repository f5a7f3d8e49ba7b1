// candleload bulk-loads candles from a JSON-lines file into the SQLite
// store. Every candle is validated first; the file is rejected whole if any
// line fails, so a partial load never reaches the database.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"candlecore/internal/model"
	sqlitestore "candlecore/internal/store/sqlite"
)

func main() {
	dbPath := flag.String("db", "data/candles.db", "path to SQLite database file")
	input := flag.String("input", "", "path to JSON-lines candle file (one candle per line)")
	flag.Parse()

	if *input == "" {
		log.Fatal("[candleload] -input is required")
	}

	candles, err := readCandles(*input)
	if err != nil {
		log.Fatalf("[candleload] %v", err)
	}
	log.Printf("[candleload] read %d valid candles from %s", len(candles), *input)

	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[candleload] %v", err)
	}
	defer writer.Close()

	inserted, err := writer.InsertBatch(context.Background(), candles)
	if err != nil {
		log.Fatalf("[candleload] insert failed: %v", err)
	}
	log.Printf("[candleload] inserted %d candles (%d duplicates skipped)", inserted, int64(len(candles))-inserted)
}

// readCandles parses and validates the whole file before anything is
// returned. The error for a bad line carries the line number and, for
// invariant violations, every failed check.
func readCandles(path string) ([]model.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var candles []model.Candle
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var c model.Candle
		if err := json.Unmarshal(line, &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := model.Validate(c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		candles = append(candles, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return candles, nil
}
