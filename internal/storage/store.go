package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/san-kum/finsolve/internal/dispatch"
	"github.com/san-kum/finsolve/internal/rootfind"
)

const lockTimeout = 5 * time.Second

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Record is one persisted solve.
type Record struct {
	ID        string             `json:"id"`
	Family    string             `json:"family"`
	Timestamp time.Time          `json:"timestamp"`
	Known     map[string]float64 `json:"known"`
	Var       string             `json:"var"`
	Label     string             `json:"label"`
	Value     float64            `json:"value"`
	Method    string             `json:"method"`
	Roots     []float64          `json:"roots,omitempty"`
	Failed    int                `json:"failed,omitempty"`
	Residual  *float64           `json:"residual,omitempty"`
}

func NewRecord(res dispatch.Result, known map[string]float64) *Record {
	rec := &Record{
		Family: res.Family,
		Known:  known,
		Var:    res.Var,
		Label:  res.Label,
		Value:  res.Value,
		Method: res.Method.String(),
	}
	if res.Scan != nil {
		rec.Roots = res.Scan.Roots
		rec.Failed = res.Scan.Failed
	}
	return rec
}

// TracePoint is one starting guess of a numeric scan.
type TracePoint struct {
	Guess      float64
	Root       float64
	Iterations int
	Converged  bool
}

// Save writes rec and, for numeric solves, the per-guess scan trace. The
// store directory is locked for the duration so concurrent processes do not
// interleave.
func (s *Store) Save(rec *Record, scan *rootfind.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	lock, err := s.lock()
	if err != nil {
		return "", err
	}
	defer lock.Unlock()

	rec.ID = fmt.Sprintf("%s_%s", rec.Family, uuid.New().String())
	rec.Timestamp = time.Now()
	runDir := filepath.Join(s.baseDir, rec.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return "", err
	}

	if scan == nil {
		return rec.ID, nil
	}

	csvFile, err := os.Create(filepath.Join(runDir, "scan.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"guess", "root", "iterations", "converged"}); err != nil {
		return "", err
	}
	for _, a := range scan.Attempts {
		row := []string{
			strconv.FormatFloat(a.Guess, 'f', 6, 64),
			strconv.FormatFloat(a.Root, 'g', -1, 64),
			strconv.Itoa(a.Iterations),
			strconv.FormatBool(a.Converged()),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return rec.ID, nil
}

func (s *Store) lock() (*flock.Flock, error) {
	lock := flock.New(filepath.Join(s.baseDir, ".lock"))
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("acquiring history lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for history lock")
	}
	return lock, nil
}

// List returns all records, newest first. Unreadable entries are skipped.
func (s *Store) List() ([]Record, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Record{}, nil
		}
		return nil, err
	}

	records := make([]Record, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	return records, nil
}

func (s *Store) Load(id string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LoadTrace reads the scan trace of a numeric solve.
func (s *Store) LoadTrace(id string) ([]TracePoint, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "scan.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []TracePoint{}, nil
	}

	points := make([]TracePoint, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != 4 {
			return nil, fmt.Errorf("scan.csv line %d: expected 4 fields, got %d", i+2, len(record))
		}
		var p TracePoint
		if p.Guess, err = strconv.ParseFloat(record[0], 64); err != nil {
			return nil, fmt.Errorf("scan.csv line %d: %w", i+2, err)
		}
		if p.Root, err = strconv.ParseFloat(record[1], 64); err != nil {
			return nil, fmt.Errorf("scan.csv line %d: %w", i+2, err)
		}
		if p.Iterations, err = strconv.Atoi(record[2]); err != nil {
			return nil, fmt.Errorf("scan.csv line %d: %w", i+2, err)
		}
		if p.Converged, err = strconv.ParseBool(record[3]); err != nil {
			return nil, fmt.Errorf("scan.csv line %d: %w", i+2, err)
		}
		points = append(points, p)
	}
	return points, nil
}
