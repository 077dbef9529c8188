package store

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// AuditRecord captures one schedule lifecycle transition for the
// append-only history.
type AuditRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	ScheduleID string    `json:"schedule_id"`
	Transition string    `json:"transition"` // calculating, generated, canceled, deleted
	Policy     string    `json:"policy,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	TotalTrips int       `json:"total_trips,omitempty"`
}

// AuditLog stores transition records in a JSONL file.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

// NewAuditLog creates the file if needed and returns the log.
func NewAuditLog(path string) (*AuditLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &AuditLog{path: path}, nil
}

// Append writes the record as one JSON line.
func (l *AuditLog) Append(rec AuditRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return json.NewEncoder(f).Encode(rec)
}

// Records returns all records for the given schedule id; an empty id
// returns the full history.
func (l *AuditLog) Records(scheduleID string) ([]AuditRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var out []AuditRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec AuditRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if scheduleID != "" && rec.ScheduleID != scheduleID {
			continue
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}
