package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"leadscout-backend/lib/telemetry"
)

func Setup(t testing.TB, name string) func() {
	return telemetry.SetupForTesting(fmt.Sprintf("test:%s", name))
}

// reads a file out of the package's testdata directory
func ReadFixture(t testing.TB, name string) []byte {
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return data
}
