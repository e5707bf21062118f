// Package main provides the CLI entry point for confbench, a latency
// and correctness benchmark for key/value configuration backends.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/AliceO2Group/ConfigurationBenchmark/backend"
	"github.com/AliceO2Group/ConfigurationBenchmark/bench"
	"github.com/AliceO2Group/ConfigurationBenchmark/topology"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "confbench",
		Short: "Configuration backend benchmarking tool",
		Long: `Confbench measures the latency and correctness of key/value
configuration backends under different data layouts (separate keys, one
combined value, a flat directory, a directory tree) and load patterns,
fanning out any number of client processes aligned to a shared clock
boundary.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())

	return root
}

func newRunCmd() *cobra.Command {
	var (
		serverURIs  string
		monURI      string
		argsURI     string
		configFile  string
		nProcesses  int
		nParameters int
		structure   string
		runID       string
		skipWait    bool
		skipCheck   bool
		put         bool
		printParams bool
		verbose     bool
		spawned     bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a benchmark against one or more configuration servers",
		Long: `Generate a deterministic parameter dataset and either write it
to every configured server (--put) or time reading it back. Get runs fan
out --n-processes independent clients that align to the same wall-clock
boundary before reading.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			flags := cmd.Flags()

			if argsURI != "" {
				remote, err := fetchRemoteOptions(cmd, argsURI)
				if err != nil {
					return err
				}
				if err := applyOptions(flags, remote); err != nil {
					return fmt.Errorf("apply options from %s: %w", argsURI, err)
				}
			}

			if configFile != "" {
				local, err := loadConfigFile(configFile)
				if err != nil {
					return err
				}
				if err := applyOptions(flags, local); err != nil {
					return fmt.Errorf("apply options from %s: %w", configFile, err)
				}
			}

			uris := splitURIs(serverURIs)
			if len(uris) == 0 {
				return fmt.Errorf("server URI required (--server-uri)")
			}

			kind, err := topology.ParseKind(structure)
			if err != nil {
				return err
			}

			if nProcesses < 1 {
				return fmt.Errorf("n-processes must be at least 1, got %d", nProcesses)
			}
			if nParameters < 0 {
				return fmt.Errorf("n-parameters must not be negative, got %d", nParameters)
			}

			opts := &bench.Options{
				ServerURIs:    uris,
				MonitoringURI: monURI,
				RunID:         runID,
				Structure:     kind,
				Parameters:    nParameters,
				Processes:     nProcesses,
				SkipWait:      skipWait,
				SkipCheck:     skipCheck,
				Put:           put,
				PrintParams:   printParams,
				Verbose:       verbose && !spawned,
				Spawned:       spawned,
			}

			return bench.Run(ctx, newLogger(opts), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&serverURIs, "server-uri", "",
		"Server URI; multiple servers separated by comma. Get mode picks one "+
			"server per client based on PID, put mode puts to all servers")
	flags.StringVar(&monURI, "mon-uri", "",
		"URI of the monitoring collector (required for get mode)")
	flags.StringVar(&argsURI, "args-uri", "",
		"URI of a configuration tree holding additional program options; "+
			"explicit command-line options take precedence")
	flags.StringVar(&configFile, "config", "",
		"Path to a YAML file holding additional program options")
	flags.IntVar(&nProcesses, "n-processes", 1,
		"Number of client processes to fan out")
	flags.IntVar(&nParameters, "n-parameters", 1,
		"Number of parameters per client")
	flags.StringVar(&structure, "structure", "separate",
		"Parameter structure: separate, combined, flat or tree")
	flags.StringVar(&runID, "run-id", "",
		"Optional extra ID attached to result samples")
	flags.BoolVar(&skipWait, "skip-wait", false,
		"Skip waiting for the synchronized start boundary")
	flags.BoolVar(&skipCheck, "skip-check", false,
		"Skip checking values returned from the server")
	flags.BoolVar(&put, "put", false,
		"Put parameters to the servers instead of getting them")
	flags.BoolVar(&printParams, "print-params", false,
		"Print the parameter dataset in CSV format and exit")
	flags.BoolVar(&verbose, "verbose", false,
		"Verbose per-step logging")
	flags.BoolVar(&spawned, "spawned", false,
		"Mark this process as a spawned client (internal)")
	_ = flags.MarkHidden("spawned")

	return cmd
}

// newLogger builds the per-process logger: debug level when verbose,
// warnings only for spawned clients so the original process keeps the
// console to itself.
func newLogger(opts *bench.Options) *slog.Logger {
	level := slog.LevelInfo

	switch {
	case opts.Spawned:
		level = slog.LevelWarn
	case opts.Verbose:
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// fetchRemoteOptions loads program options from the configuration tree
// at uri.
func fetchRemoteOptions(cmd *cobra.Command, uri string) (map[string]string, error) {
	be, err := backend.Dial(uri)
	if err != nil {
		return nil, err
	}
	defer be.Close()

	return backend.RemoteArgs(cmd.Context(), be)
}

// loadConfigFile reads program options from a YAML mapping of flag name
// to value.
func loadConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	values := make(map[string]string, len(raw))
	for name, value := range raw {
		values[name] = fmt.Sprintf("%v", value)
	}

	return values, nil
}

// applyOptions sets each named flag that was not already set on the
// command line, so explicit flags always win over loaded options.
func applyOptions(flags *pflag.FlagSet, values map[string]string) error {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown option %q", name)
		}

		if flag.Changed {
			continue
		}

		if err := flags.Set(name, values[name]); err != nil {
			return fmt.Errorf("option %q: %w", name, err)
		}
	}

	return nil
}

// splitURIs splits a comma-separated server list, dropping empty
// entries left by stray commas.
func splitURIs(s string) []string {
	parts := strings.Split(s, ",")
	uris := make([]string, 0, len(parts))

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			uris = append(uris, part)
		}
	}

	return uris
}
