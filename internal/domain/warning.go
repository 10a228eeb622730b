package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawEvent represents an unprocessed message from the warning source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Warning is a single maritime safety broadcast as published by the NGA MSI
// feed. Text is free-form and not guaranteed to be well formed.
type Warning struct {
	Text      string `json:"text"`
	IssueDate string `json:"issueDate"`
	NavArea   string `json:"navArea"`
	MsgYear   string `json:"msgYear"`
	MsgNumber string `json:"msgNumber"`
}

// ID identifies the warning across feed polls, e.g. "4-2026-123".
func (w Warning) ID() string {
	return fmt.Sprintf("%s-%s-%s", w.NavArea, w.MsgYear, w.MsgNumber)
}

// RawWarningRecord mirrors the JSON object emitted by the NGA broadcast-warn
// endpoint. The API sends msgYear and msgNumber as numbers while collectors
// re-publish them as strings, so both are accepted.
type RawWarningRecord struct {
	Text      string     `json:"text"`
	IssueDate string     `json:"issueDate"`
	NavArea   flexString `json:"navArea"`
	MsgYear   flexString `json:"msgYear"`
	MsgNumber flexString `json:"msgNumber"`
	Subregion string     `json:"subregion,omitempty"`
	Status    string     `json:"status,omitempty"`
}

// Warning converts the record into the domain type.
func (r RawWarningRecord) Warning() Warning {
	return Warning{
		Text:      strings.TrimSpace(r.Text),
		IssueDate: strings.TrimSpace(r.IssueDate),
		NavArea:   string(r.NavArea),
		MsgYear:   string(r.MsgYear),
		MsgNumber: string(r.MsgNumber),
	}
}

// flexString decodes either a JSON string or a JSON number into a string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// ErrEmptyWarning is returned when a record decodes but carries no text.
var ErrEmptyWarning = errors.New("warning has no text")

// ParseWarningEvent deserializes a RawEvent's value into a Warning.
func ParseWarningEvent(raw RawEvent) (Warning, error) {
	var rec RawWarningRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Warning{}, fmt.Errorf("parse warning event: %w", err)
	}
	w := rec.Warning()
	if w.Text == "" {
		return Warning{}, fmt.Errorf("parse warning event %s: %w", w.ID(), ErrEmptyWarning)
	}
	return w, nil
}
