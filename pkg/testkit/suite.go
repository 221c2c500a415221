package testkit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// SuiteEntry is one group in a master suite file: a directory of scenarios
// and the name of the handler factory that serves them.
type SuiteEntry struct {
	ServiceName string `json:"serviceName"`
	Dir         string `json:"dir"`     // relative to the master file
	Handler     string `json:"handler"` // key into the factories map
}

// RunSuite reads a master JSON file (an array of SuiteEntry) and runs every
// entry's scenario directory as a subtest.
func RunSuite(t *testing.T, masterPath string, factories map[string]HandlerFactory) {
	t.Helper()

	absMaster, err := filepath.Abs(masterPath)
	if err != nil {
		t.Fatalf("testkit: resolve master path %q: %v", masterPath, err)
	}

	data, err := os.ReadFile(absMaster)
	if err != nil {
		t.Fatalf("testkit: read master file %q: %v", absMaster, err)
	}

	var entries []SuiteEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("testkit: parse master file %q: %v", absMaster, err)
	}

	baseDir := filepath.Dir(absMaster)
	for _, entry := range entries {
		t.Run(entry.ServiceName, func(t *testing.T) {
			factory, ok := factories[entry.Handler]
			if !ok {
				t.Fatalf("testkit: handler %q not registered", entry.Handler)
			}
			RunDir(t, factory, filepath.Join(baseDir, entry.Dir))
		})
	}
}
