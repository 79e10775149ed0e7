package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mypgrade/internal/core"
)

const maxBodyBytes = 64 << 10

// ErrMalformedRequest marks input that could not be decoded at all, as
// opposed to well-formed input with an invalid score.
var ErrMalformedRequest = errors.New("malformed request")

// RequestBodyParser reads a JSON or form-encoded body once. htmx posts
// forms, API clients post JSON.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads up to maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("%w: body larger than %d bytes", ErrMalformedRequest, maxBodyBytes)
	}
	return p
}

// Parse decodes the body as JSON when it looks like JSON, else as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", ErrMalformedRequest, err)
		}
		return p.err
	}

	form, err := url.ParseQuery(trimmed)
	if err != nil {
		p.err = fmt.Errorf("%w: %v", ErrMalformedRequest, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

type scoresRequest struct {
	Scores *[]json.Number `json:"scores"`
}

// ParseScores reads the replacement list of a PUT. JSON bodies carry
// {"scores":[7,6]}; forms carry scores=7,6. An empty form value clears the
// list. Every entry goes through core.ParseScore.
func (p *RequestBodyParser) ParseScores() ([]int, error) {
	if err := p.Parse(); err != nil {
		return nil, err
	}

	var raw []string
	if p.IsJSON() {
		var req scoresRequest
		if err := json.Unmarshal(p.body, &req); err != nil {
			// Decoding numbers like 6.5 into json.Number succeeds; only
			// non-numeric entries end up here.
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidScore, err)
		}
		if req.Scores == nil {
			return nil, fmt.Errorf("%w: missing scores", ErrMalformedRequest)
		}
		for _, n := range *req.Scores {
			raw = append(raw, n.String())
		}
	} else {
		if !p.Has("scores") {
			return nil, fmt.Errorf("%w: missing scores", ErrMalformedRequest)
		}
		if v := p.Get("scores"); v != "" {
			raw = strings.Split(v, ",")
		}
	}

	scores := make([]int, 0, len(raw))
	for i, s := range raw {
		v, err := core.ParseScore(s)
		if err != nil {
			return nil, fmt.Errorf("scores[%d]: %w", i, err)
		}
		scores = append(scores, v)
	}
	return scores, nil
}

// ParseScoreIndex parses the {index} path segment.
func ParseScoreIndex(s string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrMalformedRequest, s)
	}
	return i, nil
}

// IsConfirmed reports whether the reset was confirmed through the query
// string or the body.
func IsConfirmed(r *http.Request, p *RequestBodyParser) bool {
	if confirmValue(r.URL.Query().Get("confirm")) {
		return true
	}
	return p != nil && p.Parse() == nil && confirmValue(p.Get("confirm"))
}

func confirmValue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true":
		return true
	}
	return false
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims whitespace and drops control characters other than
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
