package topology

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
)

func TestMakeValueShape(t *testing.T) {
	v := MakeValue(7)

	if len(v) != 100 {
		t.Errorf("len = %d, want 100", len(v))
	}
	if want := "value" + strings.Repeat("0", 94) + "7"; v != want {
		t.Errorf("MakeValue(7) = %q, want %q", v, want)
	}
}

func TestMakeValueDistinct(t *testing.T) {
	seen := make(map[string]int)

	for i := 0; i < 200; i++ {
		v := MakeValue(i)
		if len(v) != 100 {
			t.Fatalf("MakeValue(%d): len = %d, want 100", i, len(v))
		}
		if prev, ok := seen[v]; ok {
			t.Fatalf("MakeValue(%d) collides with MakeValue(%d)", i, prev)
		}
		seen[v] = i
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"separate", "combined", "flat", "tree"} {
		kind, err := ParseKind(name)
		if err != nil {
			t.Fatalf("ParseKind(%q) failed: %v", name, err)
		}
		if kind.String() != name {
			t.Errorf("String() = %q, want %q", kind.String(), name)
		}
	}

	if _, err := ParseKind("ring"); err == nil {
		t.Error("expected error for unknown structure")
	}
}

func TestGenerateCounts(t *testing.T) {
	tests := []struct {
		kind Kind
		n    int
		want int
	}{
		{Separate, 0, 0},
		{Separate, 1, 1},
		{Separate, 17, 17},
		{Combined, 1, 1},
		{Combined, 100, 1},
		{Flat, 0, 0},
		{Flat, 8, 8},
		{Tree, 0, 0},
		{Tree, 5, 5},
		{Tree, 6, 6},
		{Tree, 42, 42},
	}

	for _, tt := range tests {
		ds := tt.kind.Generate(tt.n)
		if len(ds) != tt.want {
			t.Errorf("%v.Generate(%d): %d keys, want %d",
				tt.kind, tt.n, len(ds), tt.want)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	for _, kind := range []Kind{Separate, Combined, Flat, Tree} {
		if !reflect.DeepEqual(kind.Generate(13), kind.Generate(13)) {
			t.Errorf("%v.Generate is not deterministic", kind)
		}
	}
}

func TestSeparateKeys(t *testing.T) {
	want := Dataset{
		"/test/separate/key0": MakeValue(0),
		"/test/separate/key1": MakeValue(1),
		"/test/separate/key2": MakeValue(2),
	}

	if got := Separate.Generate(3); !reflect.DeepEqual(got, want) {
		t.Errorf("Separate.Generate(3) = %v, want %v", got, want)
	}
}

func TestCombinedValue(t *testing.T) {
	ds := Combined.Generate(2)

	value, ok := ds["/test/combined/key2"]
	if !ok {
		t.Fatal("missing key /test/combined/key2")
	}

	want := "key0=value" + strings.Repeat("0", 95) +
		"|key1=value" + strings.Repeat("0", 94) + "1|"
	if value != want {
		t.Errorf("combined value = %q, want %q", value, want)
	}
}

func TestFlatKeys(t *testing.T) {
	ds := Flat.Generate(4)

	for i, key := range []string{
		"/test/flat4/key0",
		"/test/flat4/key1",
		"/test/flat4/key2",
		"/test/flat4/key3",
	} {
		if ds[key] != MakeValue(i) {
			t.Errorf("ds[%q] = %q, want %q", key, ds[key], MakeValue(i))
		}
	}
}

func TestTreeDepth(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{5, 0},
		{6, 1},
		{15, 1},
		{16, 2},
		{35, 2},
		{36, 3},
	}

	for _, tt := range tests {
		if got := treeDepth(tt.n, maxKeysPerDir); got != tt.want {
			t.Errorf("treeDepth(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestTreeLayout(t *testing.T) {
	ds := Tree.Generate(12)

	want := Dataset{}
	for i := 0; i < 5; i++ {
		want["/test/tree12/key"+strconv.Itoa(i)] = MakeValue(i)
	}
	for i := 5; i < 10; i++ {
		want["/test/tree12/dirA/key"+strconv.Itoa(i)] = MakeValue(i)
	}
	want["/test/tree12/dirB/key10"] = MakeValue(10)
	want["/test/tree12/dirB/key11"] = MakeValue(11)

	if !reflect.DeepEqual(ds, want) {
		t.Errorf("Tree.Generate(12) = %v, want %v", ds, want)
	}
}
