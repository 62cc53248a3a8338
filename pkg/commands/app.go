package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"
	"k8s.io/utils/strings/slices"

	"github.com/kubeblast/kubeblast/pkg/catalog"
	kbflag "github.com/kubeblast/kubeblast/pkg/flag"
	"github.com/kubeblast/kubeblast/pkg/inventory"
	"github.com/kubeblast/kubeblast/pkg/report"
)

var exportKinds = []string{"consolidated", "graph"}

// NewCmd builds the kubeblast command tree. Without a subcommand the tool
// drops into the interactive shell.
func NewCmd() *cobra.Command {
	flags := kbflag.NewFlags()

	cmd := &cobra.Command{
		Use:   "kubeblast",
		Short: "Assess the blast radius of losing a kubernetes node",
		Example: `  # narrative report for one node
  $ kubeblast report --node worker-1

  # grouped table for the whole cluster, saved to a file
  $ kubeblast report --all-nodes --save

  # machine-readable exports
  $ kubeblast export consolidated --all-nodes
  $ kubeblast export graph --all-nodes

  # generate a catalog skeleton from the live inventory
  $ kubeblast template

  # no subcommand: interactive shell
  $ kubeblast
`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// viper.BindPFlags cannot be called in init().
			// cf. https://github.com/spf13/cobra/issues/875
			if err := flags.Bind(cmd); err != nil {
				return xerrors.Errorf("flag bind error: %w", err)
			}
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.ToOptions()
			if err != nil {
				return xerrors.Errorf("flag error: %w", err)
			}
			s, err := newSession(opts)
			if err != nil {
				return err
			}
			return runInteractive(cmd, s)
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags.AddFlags(cmd)
	cmd.AddCommand(
		newReportCmd(flags),
		newStatsCmd(flags),
		newExportCmd(flags),
		newTemplateCmd(flags),
	)
	return cmd
}

func newReportCmd(flags *kbflag.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Render an impact assessment report",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, scope, err := sessionWithScope(flags)
			if err != nil {
				return err
			}

			records, gaps, err := s.assess(cmd.Context(), scope)
			if err != nil {
				return err
			}
			s.warnGaps(gaps)

			var rendered string
			if scope.All() {
				rendered = report.PerNode(records)
			} else {
				rendered = report.Narrative(records, scope.Node())
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)

			if s.opts.Save {
				path, err := s.writer.WriteText(s.contextLabel(scope), rendered)
				if err != nil {
					return err
				}
				s.logger.Infof("report written to %s", path)
			}
			return nil
		},
	}
}

func newStatsCmd(flags *kbflag.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show criticality statistics for the selected scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, scope, err := sessionWithScope(flags)
			if err != nil {
				return err
			}

			records, gaps, err := s.assess(cmd.Context(), scope)
			if err != nil {
				return err
			}
			s.warnGaps(gaps)

			fmt.Fprintf(cmd.OutOrStdout(), "High criticality containers: %d\n\n", report.HighCount(records))
			fmt.Fprint(cmd.OutOrStdout(), report.Tabular(records, scope.All()))
			return nil
		},
	}
}

func newExportCmd(flags *kbflag.Flags) *cobra.Command {
	return &cobra.Command{
		Use:       "export { consolidated | graph }",
		Short:     "Write a machine-readable export",
		Args:      cobra.ExactArgs(1),
		ValidArgs: exportKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := args[0]
			if !slices.Contains(exportKinds, kind) {
				return fmt.Errorf("unknown export kind %q, want one of %v", kind, exportKinds)
			}

			s, scope, err := sessionWithScope(flags)
			if err != nil {
				return err
			}

			records, gaps, err := s.assess(cmd.Context(), scope)
			if err != nil {
				return err
			}
			s.warnGaps(gaps)

			var path string
			switch kind {
			case "consolidated":
				path, err = s.writer.WriteConsolidated(report.Consolidated(records))
			case "graph":
				path, err = s.writer.WriteGraphs(report.Graphs(records))
			}
			if err != nil {
				return err
			}
			s.logger.Infof("export written to %s", path)
			return nil
		},
	}
}

func newTemplateCmd(flags *kbflag.Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Generate a catalog skeleton from the live inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.ToOptions()
			if err != nil {
				return xerrors.Errorf("flag error: %w", err)
			}
			s, err := newSession(opts)
			if err != nil {
				return err
			}

			pods, err := s.pods(cmd.Context())
			if err != nil {
				return err
			}

			instances := inventory.Extract(pods, inventory.AllNodes())
			refs := make([]catalog.Ref, 0, len(instances))
			for _, instance := range instances {
				refs = append(refs, catalog.Ref{Namespace: instance.Namespace, Name: instance.Container})
			}

			if err := catalog.WriteTemplate(opts.CatalogPath, refs); err != nil {
				return err
			}
			s.logger.Infof("catalog template written to %s, fill in the placeholders before reporting", opts.CatalogPath)
			return nil
		},
	}
}

func sessionWithScope(flags *kbflag.Flags) (*session, inventory.Scope, error) {
	opts, err := flags.ToOptions()
	if err != nil {
		return nil, inventory.Scope{}, xerrors.Errorf("flag error: %w", err)
	}
	s, err := newSession(opts)
	if err != nil {
		return nil, inventory.Scope{}, err
	}
	scope, err := s.scope()
	if err != nil {
		return nil, inventory.Scope{}, err
	}
	return s, scope, nil
}

func initConfig() error {
	viper.SetEnvPrefix("KUBEBLAST")
	viper.AutomaticEnv()

	viper.SetConfigName("kubeblast")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return xerrors.Errorf("config file loading error: %w", err)
	}
	return nil
}
