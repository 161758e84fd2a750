// Package sse implements the two-line server-sent-event wire format used
// by the streaming endpoint: an "event: <type>" line, a "data: <json>"
// line, and a blank separator line per message.
package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Event is one decoded message.
type Event struct {
	Type string
	Data json.RawMessage
}

// Encoder writes events to an underlying stream, flushing after each
// message when the stream supports it.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
}

// NewEncoder returns an Encoder for w.
func NewEncoder(w io.Writer) *Encoder {
	enc := &Encoder{w: w}
	if f, ok := w.(http.Flusher); ok {
		enc.flusher = f
	}
	return enc
}

// WriteEvent marshals payload as JSON and writes one complete message.
func (e *Encoder) WriteEvent(eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

// Decoder reads events back from a stream. It exists for tests and for
// any Go client of the streaming endpoint.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{scanner: bufio.NewScanner(r)}
}

// Next returns the next complete event. It returns io.EOF when the
// stream ends cleanly between messages and io.ErrUnexpectedEOF when it
// ends inside one; callers treat the latter as connection loss.
func (d *Decoder) Next() (Event, error) {
	var ev Event

	// Skip blank lines between messages.
	line, err := d.nextLine()
	for err == nil && line == "" {
		line, err = d.nextLine()
	}
	if err != nil {
		// io.EOF here is a clean end; anything else is a real read
		// failure and must not look like one.
		return ev, err
	}

	if !strings.HasPrefix(line, "event: ") {
		return ev, fmt.Errorf("malformed event line: %q", line)
	}
	ev.Type = strings.TrimPrefix(line, "event: ")

	line, err = d.nextLine()
	if err != nil {
		if err != io.EOF {
			return ev, err
		}
		return ev, io.ErrUnexpectedEOF
	}
	if !strings.HasPrefix(line, "data: ") {
		return ev, fmt.Errorf("malformed data line: %q", line)
	}

	data := strings.TrimPrefix(line, "data: ")
	if !json.Valid([]byte(data)) {
		return ev, fmt.Errorf("event %q carries invalid JSON payload", ev.Type)
	}
	ev.Data = json.RawMessage(data)

	return ev, nil
}

// All drains the stream and returns every event up to its end. An abrupt
// end after a complete message is not an error.
func (d *Decoder) All() ([]Event, error) {
	var events []Event
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func (d *Decoder) nextLine() (string, error) {
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return d.scanner.Text(), nil
}
