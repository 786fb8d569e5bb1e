package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/michaelbrown/polyrun/internal/execution"
)

// Response is the decoded body of an execute call. Every field is optional;
// absent or null fields decode to their zero value.
type Response struct {
	StatusCode *int
	Output     string
	Error      string
	CPUTime    string
	Memory     string
}

type wireResponse struct {
	StatusCode looseInt    `json:"statusCode"`
	Output     looseString `json:"output"`
	Error      looseString `json:"error"`
	CPUTime    looseString `json:"cpuTime"`
	Memory     looseString `json:"memory"`
}

// looseString accepts a JSON string, number, bool or null. Other values are
// kept as their raw JSON text.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err == nil {
		*s = looseString(v)
		return nil
	}
	*s = looseString(strings.TrimSpace(string(b)))
	return nil
}

// looseInt accepts a JSON number or a numeric string. Anything else leaves
// it unset.
type looseInt struct {
	v   int
	set bool
}

func (n *looseInt) UnmarshalJSON(b []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		n.v, n.set = int(f), true
	}
	return nil
}

// ParseResponse decodes body. It fails only when body is not a JSON object;
// an empty body decodes to an empty Response.
func ParseResponse(body []byte) (Response, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Response{}, nil
	}

	var w wireResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return Response{}, err
	}

	r := Response{
		Output:  string(w.Output),
		Error:   string(w.Error),
		CPUTime: string(w.CPUTime),
		Memory:  string(w.Memory),
	}
	if w.StatusCode.set {
		code := w.StatusCode.v
		r.StatusCode = &code
	}
	return r, nil
}

// Metrics converts the reported figures. Unparseable values are dropped.
func (r Response) Metrics() execution.Metrics {
	return execution.Metrics{
		CPUTimeSeconds: parseFloat(r.CPUTime),
		MemoryKB:       parseFloat(r.Memory),
	}
}

func parseFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

// MapResponse converts an HTTP status and body from the remote service into
// a Result. It is total: every input yields exactly one Result.
func MapResponse(httpStatus int, body []byte) execution.Result {
	if httpStatus < 200 || httpStatus > 299 {
		msg := fmt.Sprintf("remote service returned HTTP %d", httpStatus)
		if text := http.StatusText(httpStatus); text != "" {
			msg += " " + text
		}
		if r, err := ParseResponse(body); err == nil && r.Error != "" {
			msg += ": " + r.Error
		}
		return execution.Fail(execution.InfrastructureError, msg)
	}

	r, err := ParseResponse(body)
	if err != nil {
		return execution.Failf(execution.InfrastructureError, "malformed response from remote service: %v", err)
	}
	metrics := r.Metrics()

	if r.StatusCode != nil && *r.StatusCode != http.StatusOK {
		msg := r.Error
		if msg == "" {
			msg = fmt.Sprintf("Execution failed (status %d)", *r.StatusCode)
		}
		return execution.Fail(execution.RuntimeError, msg).WithMetrics(metrics)
	}

	var parts []string
	for _, p := range []string{r.Error, r.Output} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return execution.Ok(strings.Join(parts, "\n"), metrics)
}
