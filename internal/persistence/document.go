package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Document is the serialized form of the whole store: the roster and the
// attendance log travel together as one snapshot.
type Document struct {
	Students   []StudentRecord `json:"students"`
	Attendance []SessionRecord `json:"attendance"`
}

// StudentRecord is the persisted roster entry.
type StudentRecord struct {
	RA      Text `json:"ra"`
	Nome    Text `json:"nome"`
	Curso   Text `json:"curso"`
	Periodo Text `json:"periodo"`
}

// SessionRecord is the persisted attendance session.
//
// Logs is nil when the field was absent from the payload, which lets the
// loader tell old records apart from records with an empty history.
type SessionRecord struct {
	ID         int64       `json:"id"`
	Date       Text        `json:"date"`
	Course     Text        `json:"course"`
	Period     Text        `json:"period"`
	Type       Text        `json:"type"`
	PresentRAs []Text      `json:"presentRAs"`
	Timestamp  string      `json:"timestamp"`
	Logs       []LogRecord `json:"logs"`
}

// LogRecord is one audit entry of a session.
type LogRecord struct {
	Action string `json:"action"`
	Time   string `json:"time"`
}

// Text is a string that also accepts JSON numbers and booleans on decode.
// Spreadsheet imports commonly store RAs and periods as numbers.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case bytes.Equal(data, []byte("true")) || bytes.Equal(data, []byte("false")):
		*t = Text(data)
		return nil
	default:
		if _, err := strconv.ParseFloat(string(data), 64); err != nil {
			return fmt.Errorf("persistence: unsupported text value %s", data)
		}
		*t = Text(data)
		return nil
	}
}

// String returns the underlying string.
func (t Text) String() string { return string(t) }

// EncodeDocument serializes doc into the snapshot wire format.
func EncodeDocument(doc Document) ([]byte, error) {
	if doc.Students == nil {
		doc.Students = []StudentRecord{}
	}
	if doc.Attendance == nil {
		doc.Attendance = []SessionRecord{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("persistence: encode document: %w", err)
	}
	return payload, nil
}

// DecodeDocument parses a snapshot payload. Any failure is reported as
// ErrCorrupt.
func DecodeDocument(payload []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return doc, nil
}
