package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
)

// ParsedLine is either a successfully decoded RequestDescriptor or a
// parse failure, carrying the best-effort id recovered from the raw
// line for error-record correlation, falling back to "<unknown>".
type ParsedLine struct {
	Request *RequestDescriptor
	Err     error
	// FallbackID is populated only when Err != nil.
	FallbackID string
}

const unknownID = "<unknown>"

// rawProbe is used to recover an "id" field from a line that otherwise
// fails to decode into a RequestDescriptor (e.g. a field of the wrong type).
type rawProbe struct {
	ID string `json:"id"`
}

// DecodeAll reads newline-delimited JSON RequestDescriptor records from
// r, skipping blank lines. It never returns early on a per-line parse or
// validation error: those are reported as ParsedLine.Err so the caller
// can emit an error record and keep going, per the manifest reader
// contract. It returns an error only on an I/O failure reading the
// source itself.
func DecodeAll(r io.Reader) ([]ParsedLine, error) {
	var lines []ParsedLine

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		raw := scanner.Bytes()
		trimmed := trimSpaceBytes(raw)
		if len(trimmed) == 0 {
			continue
		}

		var desc RequestDescriptor
		if err := json.Unmarshal(trimmed, &desc); err != nil {
			lines = append(lines, ParsedLine{Err: err, FallbackID: recoverID(trimmed)})
			continue
		}
		if err := desc.Validate(); err != nil {
			id := desc.ID
			if id == "" {
				id = unknownID
			}
			lines = append(lines, ParsedLine{Err: err, FallbackID: id})
			continue
		}

		line := desc
		lines = append(lines, ParsedLine{Request: &line})
	}
	if err := scanner.Err(); err != nil {
		return lines, err
	}
	return lines, nil
}

func recoverID(raw []byte) string {
	var probe rawProbe
	if err := json.Unmarshal(raw, &probe); err == nil && probe.ID != "" {
		return probe.ID
	}
	// Not valid JSON as a whole: read top-level members in order and take
	// "id" if it is reached before the syntax error.
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return unknownID
	}
	for dec.More() {
		key, err := dec.Token()
		var val json.RawMessage
		if err != nil || dec.Decode(&val) != nil {
			return unknownID
		}
		if key == "id" && json.Unmarshal(val, &probe.ID) == nil && probe.ID != "" {
			return probe.ID
		}
	}
	return unknownID
}

func trimSpaceBytes(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && isSpace(b[start]) {
		start++
	}
	for end > start && isSpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
