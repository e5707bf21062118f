package report

import (
	"bytes"
	"testing"

	"github.com/AliceO2Group/ConfigurationBenchmark/topology"
)

func TestWriteCSVSorted(t *testing.T) {
	ds := topology.Dataset{
		"/test/b": "2",
		"/test/a": "1",
		"/test/c": "3",
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, ds); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "/test/a,1\n/test/b,2\n/test/c,3\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestWriteComparison(t *testing.T) {
	generated := topology.Dataset{"/k": "v"}
	returned := topology.Dataset{"/k": "w"}

	var buf bytes.Buffer
	if err := WriteComparison(&buf, generated, returned); err != nil {
		t.Fatalf("WriteComparison failed: %v", err)
	}

	want := "# Generated\n/k,v\n# Returned\n/k,w\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}
