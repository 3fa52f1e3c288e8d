package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	errInvalidBody  = errors.New("invalid request body")
	errBodyTooLarge = errors.New("request body too large")
)

// BodyLimitMiddleware caps how much of a request body handlers may read.
func BodyLimitMiddleware(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}
		c.Next()
	}
}

// readObjectFields reads one JSON document and returns the members of a
// top-level object. An empty body or a top-level array has no members.
// Scalars at the top level and trailing data are rejected.
func readObjectFields(c *gin.Context) (map[string]json.RawMessage, error) {
	raw, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}
		return nil, errInvalidBody
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	var doc json.RawMessage
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, errInvalidBody
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errInvalidBody
	}

	doc = bytes.TrimSpace(doc)
	switch doc[0] {
	case '{':
		fields := map[string]json.RawMessage{}
		if err := json.Unmarshal(doc, &fields); err != nil {
			return nil, errInvalidBody
		}
		return fields, nil
	case '[':
		return map[string]json.RawMessage{}, nil
	default:
		return nil, errInvalidBody
	}
}

// fieldText renders a JSON member as stored text. ok is false for absent,
// null, false, zero and empty-string values.
func fieldText(raw json.RawMessage) (text string, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	switch raw[0] {
	case 'n':
		return "", false
	case 't':
		return "true", true
	case 'f':
		return "", false
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, s != ""
	case '{', '[':
		var compact bytes.Buffer
		if err := json.Compact(&compact, raw); err != nil {
			return string(raw), true
		}
		return compact.String(), true
	default:
		return numberText(string(raw))
	}
}

// numberText formats a JSON number the shortest way that round-trips,
// spelling exponents as 1e+21 and 1e-7.
func numberText(literal string) (string, bool) {
	f, err := strconv.ParseFloat(literal, 64)
	switch {
	case math.IsInf(f, 1):
		return "Infinity", true
	case math.IsInf(f, -1):
		return "-Infinity", true
	case err != nil:
		return literal, true
	case f == 0:
		return "", false
	}

	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	s := strconv.FormatFloat(f, 'e', -1, 64)
	s = strings.Replace(s, "e+0", "e+", 1)
	s = strings.Replace(s, "e-0", "e-", 1)
	return s, true
}
