package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/kubeblast/kubeblast/pkg/impact"
	"github.com/kubeblast/kubeblast/pkg/inventory"
	"github.com/kubeblast/kubeblast/pkg/report"
)

const (
	actionReport       = "report"
	actionStats        = "stats"
	actionConsolidated = "export-consolidated"
	actionGraph        = "export-graph"
	actionRescope      = "rescope"
	actionQuit         = "quit"
)

const allNodesChoice = "\x00all-nodes"

// shellState is the explicit application state the interactive shell
// dispatches over: the selected scope and the records resolved for it.
// Records are resolved once per scope selection and stay immutable, so
// every action in the same selection reads the same snapshot.
type shellState struct {
	scope   inventory.Scope
	records []impact.Record
}

type shellAction func(cmd *cobra.Command, s *session, state *shellState) error

// runInteractive drives the menu shell: pick a scope, then dispatch
// actions against the resolved snapshot until the user quits.
func runInteractive(cmd *cobra.Command, s *session) error {
	ctx := cmd.Context()

	state, err := selectScope(ctx, s)
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	dispatch := map[string]shellAction{
		actionReport:       showReport,
		actionStats:        showStats,
		actionConsolidated: exportConsolidated,
		actionGraph:        exportGraph,
	}

	for {
		action, err := selectAction()
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}

		switch action {
		case actionQuit:
			return nil
		case actionRescope:
			state, err = selectScope(ctx, s)
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
		default:
			if err := dispatch[action](cmd, s, state); err != nil {
				// an export failure aborts only that export, earlier
				// artifacts from this session stay valid
				s.logger.Errorf("%v", err)
			}
		}
	}
}

func selectScope(ctx context.Context, s *session) (*shellState, error) {
	nodes, err := s.collector.ListNodes(ctx)
	if err != nil {
		return nil, err
	}

	options := []huh.Option[string]{huh.NewOption("All nodes", allNodesChoice)}
	for _, node := range nodes {
		options = append(options, huh.NewOption(node, node))
	}

	var choice string
	if err := huh.NewSelect[string]().
		Title("Select assessment scope").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return nil, err
	}

	scope := inventory.AllNodes()
	if choice != allNodesChoice {
		scope = inventory.SingleNode(choice)
	}

	records, gaps, err := s.assess(ctx, scope)
	if err != nil {
		return nil, err
	}
	s.warnGaps(gaps)

	return &shellState{scope: scope, records: records}, nil
}

func selectAction() (string, error) {
	var choice string
	err := huh.NewSelect[string]().
		Title("Select action").
		Options(
			huh.NewOption("Render report", actionReport),
			huh.NewOption("Show statistics", actionStats),
			huh.NewOption("Export consolidated JSON", actionConsolidated),
			huh.NewOption("Export dependency graph", actionGraph),
			huh.NewOption("Change scope", actionRescope),
			huh.NewOption("Quit", actionQuit),
		).
		Value(&choice).
		Run()
	return choice, err
}

func showReport(cmd *cobra.Command, s *session, state *shellState) error {
	var rendered string
	if state.scope.All() {
		rendered = report.PerNode(state.records)
	} else {
		rendered = report.Narrative(state.records, state.scope.Node())
	}
	fmt.Fprint(cmd.OutOrStdout(), rendered)

	if s.opts.Save {
		path, err := s.writer.WriteText(s.contextLabel(state.scope), rendered)
		if err != nil {
			return err
		}
		s.logger.Infof("report written to %s", path)
	}
	return nil
}

func showStats(cmd *cobra.Command, s *session, state *shellState) error {
	fmt.Fprintf(cmd.OutOrStdout(), "High criticality containers: %d\n\n", report.HighCount(state.records))
	fmt.Fprint(cmd.OutOrStdout(), report.Tabular(state.records, state.scope.All()))
	return nil
}

func exportConsolidated(cmd *cobra.Command, s *session, state *shellState) error {
	path, err := s.writer.WriteConsolidated(report.Consolidated(state.records))
	if err != nil {
		return err
	}
	s.logger.Infof("export written to %s", path)
	return nil
}

func exportGraph(cmd *cobra.Command, s *session, state *shellState) error {
	path, err := s.writer.WriteGraphs(report.Graphs(state.records))
	if err != nil {
		return err
	}
	s.logger.Infof("export written to %s", path)
	return nil
}
