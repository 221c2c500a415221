package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// HandlerFactory returns a fresh handler (and whatever state backs it) for
// one scenario.
type HandlerFactory func(t *testing.T) http.Handler

// Run executes one scenario file against a handler from newHandler.
func Run(t *testing.T, newHandler HandlerFactory, scenarioPath string) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", scenarioPath, err)
	}

	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, newHandler(t), s)
	})
}

// RunDir runs every scenario in dir as a subtest, each on its own handler.
func RunDir(t *testing.T, newHandler HandlerFactory, dir string) {
	t.Helper()

	scenarios, errs := LoadAllFromDir(dir)
	for _, err := range errs {
		t.Errorf("%v", err)
	}

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, newHandler(t), s)
		})
	}
}

func runScenario(t *testing.T, handler http.Handler, s *Scenario) {
	t.Helper()

	vars := map[string]string{}
	for _, st := range s.Steps {
		ok := t.Run(st.Name, func(t *testing.T) {
			runStep(t, handler, s, st, vars)
		})
		if !ok {
			// Later steps depend on earlier ones.
			return
		}
	}
}

func runStep(t *testing.T, handler http.Handler, s *Scenario, st Step, vars map[string]string) {
	t.Helper()

	body, err := s.requestBody(st)
	if err != nil {
		t.Fatalf("[%s] read request body: %v", st.Name, err)
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(expand(body, vars))
	}

	req := httptest.NewRequest(st.Method, string(expand([]byte(st.URL), vars)), reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range st.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, st, rec.Code, rec.Body.Bytes())

	expected, err := s.expectedBody(st)
	if err != nil {
		t.Fatalf("[%s] read response file: %v", st.Name, err)
	}
	if expected != nil {
		AssertJSONBody(t, st, expand(expected, vars), rec.Body.Bytes())
	}

	if err := capture(st, rec.Body.Bytes(), vars); err != nil {
		t.Fatalf("[%s] capture: %v", st.Name, err)
	}
}

// expand replaces {{name}} with vars[name]. A quoted "{{name}}" whose value
// is numeric becomes a bare number so ids compare equal in JSON.
func expand(in []byte, vars map[string]string) []byte {
	out := string(in)
	for k, v := range vars {
		if isNumber(v) {
			out = strings.ReplaceAll(out, `"{{`+k+`}}"`, v)
		}
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return []byte(out)
}

func capture(st Step, body []byte, vars map[string]string) error {
	if len(st.Capture) == 0 {
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	for name, field := range st.Capture {
		raw, ok := obj[field]
		if !ok {
			return fmt.Errorf("field %q not in response", field)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			vars[name] = s
			continue
		}
		vars[name] = string(raw)
	}
	return nil
}

func isNumber(s string) bool {
	var n json.Number
	return json.Unmarshal([]byte(s), &n) == nil
}
