package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRunInProgress is returned when a run is triggered while another is active
var ErrRunInProgress = errors.New("ingestion run already in progress")

// CandidateError records why one candidate could not be reconciled
type CandidateError struct {
	Key   string
	Title string
	Err   error
}

func (e *CandidateError) Error() string {
	return fmt.Sprintf("reconcile %s: %v", e.Key, e.Err)
}

func (e *CandidateError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the wrapped error as text
func (e *CandidateError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Key   string `json:"key"`
		Title string `json:"title"`
		Error string `json:"error"`
	}{e.Key, e.Title, msg})
}

// Report summarizes one ingestion run.
// Created + Refreshed + Failed always equals Seen.
type Report struct {
	Source     string            `json:"source"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	Seen       int               `json:"seen"`
	Skipped    int               `json:"skipped"`
	Duplicates int               `json:"duplicates"`
	Created    int               `json:"created"`
	Refreshed  int               `json:"refreshed"`
	Failed     int               `json:"failed"`
	Errors     []*CandidateError `json:"errors"`
}

// Duration returns how long the run took
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *Report) clone() *Report {
	c := *r
	c.Errors = append([]*CandidateError(nil), r.Errors...)
	return &c
}
