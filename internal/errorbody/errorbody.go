// Package errorbody extracts a human-readable message from a non-2xx
// HTTP response body, dispatching on Content-Type the way the wider
// client library's response.HandleAPIErrorResponse does for JSON, XML,
// HTML, and plain text bodies.
package errorbody

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/net/html"
)

// jsonErrorShapes covers the two common API error envelopes: a bare
// {"message": "..."} and a nested {"error": {"message": "..."}}.
type jsonErrorShapes struct {
	Message string `json:"message"`
	Error   struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

type xmlErrorShape struct {
	Message string `xml:"Message"`
}

// Extract returns a best-effort human-readable message for a non-2xx
// response body. contentType is the raw Content-Type header value; body
// is the already-decoded (UTF-8) response body. It never errors: a body
// it cannot parse is returned close to verbatim.
func Extract(contentType string, body []byte) string {
	mimeType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mimeType = strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	}

	switch mimeType {
	case "application/json":
		return extractJSON(body)
	case "application/xml", "text/xml":
		return extractXML(body)
	case "text/html":
		return extractHTML(body)
	default:
		return strings.TrimSpace(string(body))
	}
}

func extractJSON(body []byte) string {
	var shapes jsonErrorShapes
	if err := json.Unmarshal(body, &shapes); err != nil {
		return strings.TrimSpace(string(body))
	}
	if shapes.Error.Message != "" {
		return shapes.Error.Message
	}
	if shapes.Message != "" {
		return shapes.Message
	}
	return strings.TrimSpace(string(body))
}

func extractXML(body []byte) string {
	var shape xmlErrorShape
	if err := xml.Unmarshal(body, &shape); err != nil || shape.Message == "" {
		return strings.TrimSpace(string(body))
	}
	return shape.Message
}

// extractHTML walks the parsed document looking for the first <p> text
// node, then the first <title>. When neither is present it returns a
// short summary with the body's length; when the document fails to
// parse it returns the raw body.
func extractHTML(body []byte) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return strings.TrimSpace(string(body))
	}

	var title, paragraph string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil && title == "" {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "p":
				if n.FirstChild != nil && paragraph == "" {
					paragraph = strings.TrimSpace(n.FirstChild.Data)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	switch {
	case paragraph != "":
		return paragraph
	case title != "":
		return title
	default:
		return fmt.Sprintf("HTML error body (%d bytes)", len(body))
	}
}
