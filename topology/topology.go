// Package topology builds deterministic key/value datasets in the four
// layouts the benchmark exercises: one key per parameter, all parameters
// combined into a single value, a flat directory, and a balanced
// directory tree.
package topology

import (
	"fmt"
	"strconv"
	"strings"
)

// Dataset maps hierarchical '/'-separated keys to values.
type Dataset map[string]string

// Kind selects one of the four dataset layouts.
type Kind int

const (
	Separate Kind = iota
	Combined
	Flat
	Tree
)

// ParseKind converts a structure name from the command line into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "separate":
		return Separate, nil
	case "combined":
		return Combined, nil
	case "flat":
		return Flat, nil
	case "tree":
		return Tree, nil
	default:
		return 0, fmt.Errorf(
			"unknown structure %q (want separate, combined, flat or tree)", s,
		)
	}
}

func (k Kind) String() string {
	switch k {
	case Separate:
		return "separate"
	case Combined:
		return "combined"
	case Flat:
		return "flat"
	case Tree:
		return "tree"
	default:
		return "unknown"
	}
}

// Generate builds the dataset for n parameters. It is deterministic:
// two calls with the same kind and n yield byte-identical datasets,
// which is what makes the put/get verification round-trip meaningful.
func (k Kind) Generate(n int) Dataset {
	switch k {
	case Separate:
		return generateSeparate(n)
	case Combined:
		return generateCombined(n)
	case Flat:
		return generateFlat(n)
	case Tree:
		return generateTree(n)
	default:
		return nil
	}
}

// MakeValue returns the value for parameter index i: the literal "value"
// followed by i zero-padded to a 95 character field, so every value has
// the same length regardless of index.
func MakeValue(i int) string {
	return fmt.Sprintf("value%095d", i)
}

// FlatRoot returns the directory all flat-layout keys live under.
func FlatRoot(n int) string {
	return "/test/flat" + strconv.Itoa(n)
}

// TreeRoot returns the root directory of the tree layout.
func TreeRoot(n int) string {
	return "/test/tree" + strconv.Itoa(n)
}

func generateSeparate(n int) Dataset {
	ds := make(Dataset, n)
	for i := 0; i < n; i++ {
		ds["/test/separate/key"+strconv.Itoa(i)] = MakeValue(i)
	}

	return ds
}

func generateCombined(n int) Dataset {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "key%d=value%095d|", i, i)
	}

	return Dataset{"/test/combined/key" + strconv.Itoa(n): b.String()}
}

func generateFlat(n int) Dataset {
	ds := make(Dataset, n)
	prefix := FlatRoot(n) + "/key"

	for i := 0; i < n; i++ {
		ds[prefix+strconv.Itoa(i)] = MakeValue(i)
	}

	return ds
}

// maxKeysPerDir bounds how many keys a single tree directory holds before
// the remainder spills into its dirA and dirB children.
const maxKeysPerDir = 5

func generateTree(n int) Dataset {
	ds, _ := fillDir(TreeRoot(n), 0, n, treeDepth(n, maxKeysPerDir))

	return ds
}

// fillDir places keys [next, n) into dir and its children, filling the
// current directory before recursing into dirA then dirB. It returns the
// dataset fragment it produced and the next unplaced index.
func fillDir(dir string, next, n, depth int) (Dataset, int) {
	ds := make(Dataset)
	if depth < 0 || next >= n {
		return ds, next
	}

	for placed := 0; placed < maxKeysPerDir && next < n; placed++ {
		ds[dir+"/key"+strconv.Itoa(next)] = MakeValue(next)
		next++
	}

	for _, child := range []string{"dirA", "dirB"} {
		var sub Dataset

		sub, next = fillDir(dir+"/"+child, next, n, depth-1)
		for k, v := range sub {
			ds[k] = v
		}
	}

	return ds, next
}

// treeDepth returns the smallest depth d such that a full binary tree of
// directories with perDir keys per node holds at least n keys, i.e.
// sum_{k=0}^{d} 2^k * perDir >= n.
func treeDepth(n, perDir int) int {
	depth := 0
	capacity := perDir

	for capacity < n {
		depth++
		capacity += (1 << depth) * perDir
	}

	return depth
}
