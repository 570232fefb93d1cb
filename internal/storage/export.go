package storage

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
)

type ExportData struct {
	Record
	Guesses   int           `json:"guesses,omitempty"`
	Converged int           `json:"converged,omitempty"`
	Trace     []exportPoint `json:"trace,omitempty"`
}

// exportPoint leaves Root out for guesses that did not converge; JSON has no
// NaN.
type exportPoint struct {
	Guess      float64  `json:"guess"`
	Root       *float64 `json:"root,omitempty"`
	Iterations int      `json:"iterations"`
	Converged  bool     `json:"converged"`
}

// Export writes a record and its scan trace, if any, as indented JSON.
func (s *Store) Export(id string, w io.Writer) error {
	rec, err := s.Load(id)
	if err != nil {
		return err
	}
	trace, err := s.LoadTrace(id)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return ExportJSON(w, rec, trace)
}

func ExportJSON(w io.Writer, rec *Record, trace []TracePoint) error {
	data := ExportData{
		Record:  *rec,
		Guesses: len(trace),
		Trace:   make([]exportPoint, len(trace)),
	}
	for i, p := range trace {
		data.Trace[i] = exportPoint{Guess: p.Guess, Iterations: p.Iterations, Converged: p.Converged}
		if p.Converged {
			root := p.Root
			data.Trace[i].Root = &root
			data.Converged++
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
