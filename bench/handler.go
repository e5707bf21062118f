// Package bench drives a benchmark run: it builds the dataset for the
// configured topology, writes it to or reads it back from the backend,
// verifies the round trip, and reports timing samples.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/AliceO2Group/ConfigurationBenchmark/backend"
	"github.com/AliceO2Group/ConfigurationBenchmark/topology"
)

// readProtocol tells a Handler how to fetch its dataset back: one get
// per known key, or a single recursive fetch at the topology root.
type readProtocol int

const (
	readDirect readProtocol = iota
	readRecursive
)

// Handler binds a topology to the read protocol appropriate for it and
// keeps the generated and returned datasets of the last get for
// verification.
type Handler struct {
	kind     topology.Kind
	params   int
	protocol readProtocol
	root     string // recursive fetch root, unset for direct reads
	logger   *slog.Logger

	generated topology.Dataset
	returned  topology.Dataset
}

// NewHandler builds the Handler for the given topology. Separate and
// combined layouts read each generated key directly; flat and tree
// layouts read their whole root recursively.
func NewHandler(kind topology.Kind, params int, logger *slog.Logger) *Handler {
	h := &Handler{kind: kind, params: params, logger: logger}

	switch kind {
	case topology.Separate, topology.Combined:
		h.protocol = readDirect
	case topology.Flat:
		h.protocol = readRecursive
		h.root = topology.FlatRoot(params)
	case topology.Tree:
		h.protocol = readRecursive
		h.root = topology.TreeRoot(params)
	}

	return h
}

// Build generates the dataset for this handler's topology.
func (h *Handler) Build() topology.Dataset {
	return h.kind.Generate(h.params)
}

// Put writes every key of the generated dataset to be.
func (h *Handler) Put(ctx context.Context, be backend.Backend) error {
	ds := h.Build()

	for _, key := range sortedKeys(ds) {
		h.logger.Debug("putting key",
			slog.String("key", key),
			slog.String("value", ds[key]),
		)

		if err := be.PutString(ctx, key, ds[key]); err != nil {
			return fmt.Errorf("put parameters: %w", err)
		}
	}

	return nil
}

// Get generates the dataset and reads it back from be using the
// handler's protocol. On a direct read, a key absent from the backend is
// an error: the read itself failed, which is not the same as the backend
// holding a diverged value.
func (h *Handler) Get(ctx context.Context, be backend.Backend) error {
	h.generated = h.Build()

	var err error

	switch h.protocol {
	case readDirect:
		h.returned, err = h.getDirect(ctx, be)
	case readRecursive:
		h.returned, err = h.getRecursive(ctx, be)
	}

	return err
}

func (h *Handler) getDirect(
	ctx context.Context, be backend.Backend,
) (topology.Dataset, error) {
	returned := make(topology.Dataset, len(h.generated))

	for _, key := range sortedKeys(h.generated) {
		h.logger.Debug("getting key", slog.String("key", key))

		value, ok, err := be.GetString(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("get parameters: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("get parameters: key %q not found", key)
		}

		returned[key] = value
	}

	return returned, nil
}

func (h *Handler) getRecursive(
	ctx context.Context, be backend.Backend,
) (topology.Dataset, error) {
	h.logger.Debug("getting recursive", slog.String("root", h.root))

	node, err := be.GetRecursive(ctx, h.root)
	if err != nil {
		return nil, fmt.Errorf("get parameters: %w", err)
	}

	flat := node.Flatten()
	returned := make(topology.Dataset, len(flat))

	for rel, value := range flat {
		returned[h.root+rel] = value
	}

	return returned, nil
}

// Verify counts the mismatches between the datasets of the last Get.
func (h *Handler) Verify() int {
	return CountMismatches(h.logger, h.generated, h.returned)
}

// Generated returns the dataset built by the last Get.
func (h *Handler) Generated() topology.Dataset { return h.generated }

// Returned returns the dataset fetched by the last Get.
func (h *Handler) Returned() topology.Dataset { return h.returned }

// CountMismatches compares the generated dataset against the returned
// one. A key missing from returned, or present with a different value,
// counts as one mismatch. Keys only present in returned are never
// compared, and a bare size difference is logged but not counted.
func CountMismatches(logger *slog.Logger, generated, returned topology.Dataset) int {
	if len(generated) != len(returned) {
		logger.Debug("dataset size mismatch",
			slog.Int("generated", len(generated)),
			slog.Int("returned", len(returned)),
		)
	}

	mismatches := 0

	for _, key := range sortedKeys(generated) {
		value, ok := returned[key]
		if !ok {
			mismatches++
			logger.Debug("key missing from returned dataset",
				slog.String("key", key),
			)

			continue
		}

		if value != generated[key] {
			mismatches++
			logger.Debug("value mismatch",
				slog.String("key", key),
				slog.String("expected", generated[key]),
				slog.String("returned", value),
			)
		}
	}

	return mismatches
}

func sortedKeys(ds topology.Dataset) []string {
	keys := make([]string, 0, len(ds))
	for key := range ds {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
