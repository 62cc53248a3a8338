package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"
	corev1 "k8s.io/api/core/v1"

	"github.com/kubeblast/kubeblast/pkg/catalog"
	"github.com/kubeblast/kubeblast/pkg/flag"
	"github.com/kubeblast/kubeblast/pkg/impact"
	"github.com/kubeblast/kubeblast/pkg/inventory"
	"github.com/kubeblast/kubeblast/pkg/k8s"
	"github.com/kubeblast/kubeblast/pkg/report"
)

const snapshotFileName = "inventory_snapshot.json"

// session holds everything one run needs: cluster access, the inventory
// collector, the export writer and the resolved options.
type session struct {
	opts      flag.Options
	logger    *zap.SugaredLogger
	cluster   k8s.Cluster
	collector *inventory.Collector
	writer    *report.Writer
}

func newSession(opts flag.Options) (*session, error) {
	logger, err := newLogger(opts)
	if err != nil {
		return nil, err
	}

	cluster, err := k8s.GetCluster(k8s.WithContext(opts.Context), k8s.WithKubeConfig(opts.KubeConfig))
	if err != nil {
		return nil, fmt.Errorf("connecting to cluster: %w", err)
	}

	return &session{
		opts:      opts,
		logger:    logger,
		cluster:   cluster,
		collector: inventory.NewCollector(cluster, logger, inventory.WithTimeout(opts.Timeout)),
		writer:    report.NewWriter(opts.OutputDir),
	}, nil
}

func newLogger(opts flag.Options) (*zap.SugaredLogger, error) {
	if opts.Quiet {
		return zap.NewNop().Sugar(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	if !opts.Debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// pods returns the cluster pod inventory, served from the snapshot cache
// when fresh unless caching is disabled.
func (s *session) pods(ctx context.Context) ([]corev1.Pod, error) {
	cache := inventory.NewCache(filepath.Join(s.opts.OutputDir, snapshotFileName), s.opts.CacheTTL)

	if !s.opts.NoCache {
		cached, ok, err := cache.Load()
		if err != nil {
			s.logger.Warnf("ignoring unreadable inventory snapshot: %v", err)
		} else if ok {
			s.logger.Debugf("using cached inventory snapshot, %d pods", len(cached))
			return cached, nil
		}
	}

	pods, err := s.collector.ListPods(ctx)
	if err != nil {
		return nil, err
	}

	if !s.opts.NoCache {
		if err := cache.Save(pods); err != nil {
			// a broken cache never blocks the run
			s.logger.Warnf("saving inventory snapshot: %v", err)
		}
	}
	return pods, nil
}

// assess runs the full pipeline for one scope: catalog load, inventory
// extraction and impact resolution.
func (s *session) assess(ctx context.Context, scope inventory.Scope) ([]impact.Record, []impact.Gap, error) {
	cat, err := catalog.Load(s.opts.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debugf("catalog loaded, %d entries", cat.Len())

	pods, err := s.pods(ctx)
	if err != nil {
		return nil, nil, err
	}

	instances := inventory.Extract(pods, scope)
	records, gaps := impact.Resolve(instances, cat, impact.Options{DedupeGaps: s.opts.DedupeGaps})
	return records, gaps, nil
}

func (s *session) warnGaps(gaps []impact.Gap) {
	for _, gap := range gaps {
		s.logger.Warnf("no catalog entry for %s/%s", gap.Namespace, gap.Container)
	}
	if len(gaps) > 0 {
		s.logger.Warnf("%d container(s) missing from the catalog, regenerate the template to pick them up", len(gaps))
	}
}

// scope derives the inventory scope from the options. An explicit scope
// is a precondition for every non-interactive command.
func (s *session) scope() (inventory.Scope, error) {
	if s.opts.AllNodes {
		return inventory.AllNodes(), nil
	}
	if s.opts.Node != "" {
		return inventory.SingleNode(s.opts.Node), nil
	}
	return inventory.Scope{}, fmt.Errorf("no scope selected: pass --node or --all-nodes")
}

// contextLabel names export artifacts after the assessed scope.
func (s *session) contextLabel(scope inventory.Scope) string {
	if scope.All() {
		return "all_nodes"
	}
	return scope.Node()
}
