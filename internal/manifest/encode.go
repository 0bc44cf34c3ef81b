package manifest

import (
	"bytes"
	"encoding/json"
)

// MaxBodyBytes is the truncation boundary from the response record
// contract: bodies longer than this are cut and marked.
const MaxBodyBytes = 1000

// TruncationMarker is appended, literally, to a truncated body.
const TruncationMarker = "... (truncated)"

// TruncateBody applies the fixed truncation rule: bodies of exactly
// MaxBodyBytes are untouched; anything longer is cut at MaxBodyBytes and
// the marker is appended. The cut point is backed off to the nearest
// rune boundary so truncation never splits a multi-byte UTF-8 sequence.
func TruncateBody(body string) string {
	if len(body) <= MaxBodyBytes {
		return body
	}
	cut := MaxBodyBytes
	for cut > 0 && isUTF8Continuation(body[cut]) {
		cut--
	}
	return body[:cut] + TruncationMarker
}

func isUTF8Continuation(b byte) bool {
	return b&0xC0 == 0x80
}

// wireRecord mirrors ResponseRecord but fixes the JSON field order:
// id, status, latency_ms, retry_count, headers, error, body. error and
// body stay as the last two fields.
type wireRecord struct {
	ID         string            `json:"id"`
	Status     int               `json:"status"`
	LatencyMs  int64             `json:"latency_ms"`
	RetryCount int               `json:"retry_count"`
	Headers    map[string]string `json:"headers,omitempty"`
	Error      string            `json:"error,omitempty"`
	Body       string            `json:"body,omitempty"`
}

// EncodeResponseRecord serializes one ResponseRecord to a single
// newline-terminated JSON line, applying body truncation first.
func EncodeResponseRecord(rec ResponseRecord) ([]byte, error) {
	w := wireRecord{
		ID:         rec.ID,
		Status:     rec.Status,
		LatencyMs:  rec.LatencyMs,
		RetryCount: rec.RetryCount,
		Headers:    rec.Headers,
		Error:      rec.Error,
		Body:       TruncateBody(rec.Body),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeErrorRecord builds the minimal error record used by emit_error:
// {"id":...,"status":0,"error":...}, with the same field discipline.
func EncodeErrorRecord(id, message string) ([]byte, error) {
	w := struct {
		ID     string `json:"id"`
		Status int    `json:"status"`
		Error  string `json:"error,omitempty"`
	}{ID: id, Status: 0, Error: message}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
