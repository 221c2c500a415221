// Package testkit drives HTTP API tests from JSON scenario files.
//
// A scenario is an ordered list of steps fired against one handler. Each
// step names the request, the expected status and, optionally, the expected
// JSON body. A step may capture top-level fields of its response into
// variables; later steps refer to them as {{name}} in URLs and bodies:
//
//	{
//	  "name": "create then fetch",
//	  "steps": [
//	    {"method": "POST", "url": "/products/",
//	     "body": {"name": "Lamp", "description": "Desk lamp"},
//	     "expectedCode": 200, "capture": {"id": "id"}},
//	    {"method": "GET", "url": "/product/{{id}}", "expectedCode": 200,
//	     "response": {"id": "{{id}}", "name": "Lamp", "description": "Desk lamp"}}
//	  ]
//	}
//
// Bodies can live in side files instead (requestFileName / responseFileName,
// relative to the scenario file).
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Scenario is one test case loaded from a JSON file.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       []Step `json:"steps"`

	dir string
}

// Step is a single request and its expectations.
type Step struct {
	Name    string            `json:"name"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`

	Body            json.RawMessage `json:"body"`
	RawBody         *string         `json:"rawBody"` // sent verbatim, for malformed-input cases
	RequestFileName string          `json:"requestFileName"`

	ExpectedCode     int             `json:"expectedCode"`
	Response         json.RawMessage `json:"response"`
	ResponseFileName string          `json:"responseFileName"`

	// Capture maps variable name → top-level response field.
	Capture map[string]string `json:"capture"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		if st.URL == "" {
			return fmt.Errorf("steps[%d].url is required", i)
		}
		if st.ExpectedCode == 0 {
			return fmt.Errorf("steps[%d].expectedCode is required", i)
		}
		if st.Method == "" {
			st.Method = "GET"
		}
		st.Method = strings.ToUpper(st.Method)
		if st.Name == "" {
			st.Name = fmt.Sprintf("%02d_%s_%s", i+1, st.Method, st.URL)
		}
	}
	return nil
}

// requestBody returns the raw request body for st, or nil for none.
func (s *Scenario) requestBody(st Step) ([]byte, error) {
	switch {
	case st.RawBody != nil:
		return []byte(*st.RawBody), nil
	case len(st.Body) > 0:
		return st.Body, nil
	case st.RequestFileName != "":
		return os.ReadFile(s.resolve(st.RequestFileName))
	}
	return nil, nil
}

// expectedBody returns the expected response JSON for st, or nil when the
// body is not asserted.
func (s *Scenario) expectedBody(st Step) ([]byte, error) {
	switch {
	case len(st.Response) > 0:
		return st.Response, nil
	case st.ResponseFileName != "":
		return os.ReadFile(s.resolve(st.ResponseFileName))
	}
	return nil, nil
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// LoadAllFromDir loads every *.json file in dir that parses as a scenario.
// Files that fail are returned as errors.
func LoadAllFromDir(dir string) ([]*Scenario, []error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		return nil, []error{fmt.Errorf("testkit: no scenario files found in %q", dir)}
	}

	var (
		scenarios []*Scenario
		errs      []error
	)
	for _, path := range entries {
		s, err := LoadScenario(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, errs
}
