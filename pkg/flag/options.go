package flag

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Options is the resolved configuration for one run, produced from flags,
// environment (KUBEBLAST_*) and an optional config file via viper.
type Options struct {
	KubeConfig  string
	Context     string
	Node        string
	AllNodes    bool
	CatalogPath string
	OutputDir   string
	Timeout     time.Duration
	CacheTTL    time.Duration
	NoCache     bool
	DedupeGaps  bool
	Save        bool
	Debug       bool
	Quiet       bool
}

// HasScope reports whether the run has an explicit node scope selected.
func (o Options) HasScope() bool {
	return o.AllNodes || o.Node != ""
}

// Flags registers the kubeblast flag set and converts it to Options.
type Flags struct{}

func NewFlags() *Flags {
	return &Flags{}
}

// AddFlags registers all flags as persistent flags on the root command.
func (f *Flags) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("kubeconfig", "", "path to the kubeconfig file (overrides KUBECONFIG)")
	flags.String("context", "", "kubernetes context to use, empty for current")
	flags.String("node", "", "assess the blast radius of a single node")
	flags.Bool("all-nodes", false, "assess every node in the cluster")
	flags.String("catalog", "container_info.yaml", "path to the container criticality catalog")
	flags.String("output-dir", ".", "directory for exported artifacts")
	flags.Duration("timeout", 30*time.Second, "deadline for cluster inventory retrieval")
	flags.Duration("cache-ttl", 5*time.Minute, "freshness window for the inventory snapshot cache")
	flags.Bool("no-cache", false, "bypass the inventory snapshot cache")
	flags.Bool("dedupe-gaps", false, "report each missing catalog entry once instead of once per instance")
	flags.Bool("save", false, "also write the rendered report to a file")
	flags.Bool("debug", false, "enable debug logging")
	flags.Bool("quiet", false, "suppress log output")
}

// Bind wires the flags into viper. It must run in PreRunE, not init.
func (f *Flags) Bind(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// ToOptions materializes Options and validates flag combinations.
func (f *Flags) ToOptions() (Options, error) {
	opts := Options{
		KubeConfig:  viper.GetString("kubeconfig"),
		Context:     viper.GetString("context"),
		Node:        viper.GetString("node"),
		AllNodes:    viper.GetBool("all-nodes"),
		CatalogPath: viper.GetString("catalog"),
		OutputDir:   viper.GetString("output-dir"),
		Timeout:     viper.GetDuration("timeout"),
		CacheTTL:    viper.GetDuration("cache-ttl"),
		NoCache:     viper.GetBool("no-cache"),
		DedupeGaps:  viper.GetBool("dedupe-gaps"),
		Save:        viper.GetBool("save"),
		Debug:       viper.GetBool("debug"),
		Quiet:       viper.GetBool("quiet"),
	}

	if opts.AllNodes && opts.Node != "" {
		return Options{}, fmt.Errorf("--node and --all-nodes are mutually exclusive")
	}
	if opts.Timeout <= 0 {
		return Options{}, fmt.Errorf("--timeout must be positive")
	}
	return opts, nil
}
