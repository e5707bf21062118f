// Package report renders benchmark datasets for display.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/AliceO2Group/ConfigurationBenchmark/topology"
)

// WriteCSV writes ds as one "key,value" line per entry, sorted by key.
// Sorting is display-only; key order carries no meaning.
func WriteCSV(w io.Writer, ds topology.Dataset) error {
	keys := make([]string, 0, len(ds))
	for key := range ds {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		if _, err := fmt.Fprintf(w, "%s,%s\n", key, ds[key]); err != nil {
			return fmt.Errorf("write dataset: %w", err)
		}
	}

	return nil
}

// WriteComparison dumps the generated and returned datasets side by side
// for a verbose run.
func WriteComparison(w io.Writer, generated, returned topology.Dataset) error {
	fmt.Fprintln(w, "# Generated")

	if err := WriteCSV(w, generated); err != nil {
		return err
	}

	fmt.Fprintln(w, "# Returned")

	return WriteCSV(w, returned)
}
