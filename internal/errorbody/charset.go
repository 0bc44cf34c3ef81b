package errorbody

import (
	"mime"

	"golang.org/x/text/encoding/htmlindex"
)

// DecodeCharset transcodes a response body into UTF-8 using the charset
// declared in its Content-Type header, if any. A missing or unknown
// charset, or one that is already UTF-8, returns body unchanged. This
// runs before the 1,000-byte truncation rule in manifest.TruncateBody so
// truncation always operates on valid UTF-8, never on the wire encoding.
func DecodeCharset(contentType string, body []byte) []byte {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	charset := params["charset"]
	if charset == "" {
		return body
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return body
	}

	decoded, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return decoded
}
