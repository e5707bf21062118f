package bench

import (
	"strconv"
	"strings"

	"github.com/AliceO2Group/ConfigurationBenchmark/monitoring"
	"github.com/AliceO2Group/ConfigurationBenchmark/topology"
)

// Options is the immutable configuration of one benchmark invocation,
// built once from the command line and read-only afterwards.
type Options struct {
	ServerURIs    []string
	MonitoringURI string
	RunID         string
	Structure     topology.Kind
	Parameters    int
	Processes     int
	SkipWait      bool
	SkipCheck     bool
	Put           bool
	PrintParams   bool
	Verbose       bool

	// Spawned marks a client started by another confbench process: it
	// runs its share of the load but never forks or logs verbosely.
	Spawned bool
}

// metricTags is the tag set attached to every sample of this run, so
// samples from different run shapes can be sliced apart downstream.
func (o *Options) metricTags() []monitoring.Tag {
	tags := []monitoring.Tag{
		{Key: "process.number", Value: strconv.Itoa(o.Processes)},
		{Key: "param.number", Value: strconv.Itoa(o.Parameters)},
		{Key: "param.structure", Value: o.Structure.String()},
	}

	if o.RunID != "" {
		tags = append(tags, monitoring.Tag{Key: "run.id", Value: o.RunID})
	}

	return tags
}

// childArgs rebuilds the run command line for a spawned client. The
// child keeps the full run shape (its tags must match the parent's) but
// is marked spawned and never verbose.
func (o *Options) childArgs() []string {
	args := []string{
		"run",
		"--server-uri=" + strings.Join(o.ServerURIs, ","),
		"--mon-uri=" + o.MonitoringURI,
		"--structure=" + o.Structure.String(),
		"--n-parameters=" + strconv.Itoa(o.Parameters),
		"--n-processes=" + strconv.Itoa(o.Processes),
		"--spawned",
	}

	if o.RunID != "" {
		args = append(args, "--run-id="+o.RunID)
	}
	if o.SkipWait {
		args = append(args, "--skip-wait")
	}
	if o.SkipCheck {
		args = append(args, "--skip-check")
	}

	return args
}
