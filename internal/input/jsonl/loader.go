// Package jsonl loads raw incident records from a JSON-lines file.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"chaingraph/internal/logger"
)

// maxLineSize bounds one record. Command lines and URLs can get long
// but a multi-megabyte record is corrupt input.
const maxLineSize = 4 * 1024 * 1024

// Batch is the decoded content of one record file.
type Batch struct {
	Records []map[string]interface{}
	// TraceIDs and HostAddresses are collected from record metadata in
	// first-seen order.
	TraceIDs      []string
	HostAddresses []string
}

// Load reads one raw record per line, skipping blank lines. Lines that
// fail to decode are dropped with a warning; the caller still gets the
// rest of the file.
func Load(path string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	defer f.Close()

	batch := &Batch{}
	seenTrace := map[string]bool{}
	seenHost := map[string]bool{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record map[string]interface{}
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Warnf("Skipping undecodable record at %s:%d: %v", path, lineNo, err)
			continue
		}
		batch.Records = append(batch.Records, record)
		if v, ok := record["traceId"].(string); ok && v != "" && !seenTrace[v] {
			seenTrace[v] = true
			batch.TraceIDs = append(batch.TraceIDs, v)
		}
		if v, ok := record["hostAddress"].(string); ok && v != "" && !seenHost[v] {
			seenHost[v] = true
			batch.HostAddresses = append(batch.HostAddresses, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	return batch, nil
}
