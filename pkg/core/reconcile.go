package core

import (
	"context"
	"fmt"
	"slices"
)

// ReconcileReport lists the inconsistencies found between index and content.
type ReconcileReport struct {
	// OrphanContent are content nodes without a metadata record. Nodes below
	// an orphan directory are not listed separately.
	OrphanContent []string
	// OrphanMetadata are records without a reachable content node.
	OrphanMetadata []string
	// KindMismatch are records whose type disagrees with their node's container-ness.
	KindMismatch []string
	// Pruned reports whether the orphans were removed.
	Pruned bool
}

// Clean reports whether no inconsistency was found.
func (r ReconcileReport) Clean() bool {
	return len(r.OrphanContent) == 0 && len(r.OrphanMetadata) == 0 && len(r.KindMismatch) == 0
}

// Reconcile compares the content tree with the index. With prune set,
// orphan content subtrees and orphan records are removed. Kind mismatches
// are only reported.
func (s *Store) Reconcile(ctx context.Context, prune bool) (ReconcileReport, error) {
	if prune && s.readOnly {
		return ReconcileReport{}, ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.index.All(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}
	records := make(map[string]Entry, len(all))
	for _, e := range all {
		records[e.ID] = e
	}

	root, err := s.content.Root(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}

	type orphan struct {
		parent Handle
		id     string
	}
	var (
		report  ReconcileReport
		orphans []orphan
		seen    = make(map[string]bool, len(all))
	)

	err = s.walk(ctx, root, func(parent, node Handle) (bool, error) {
		e, ok := records[node.ID()]
		if !ok {
			orphans = append(orphans, orphan{parent: parent, id: node.ID()})
			report.OrphanContent = append(report.OrphanContent, node.ID())
			return false, nil
		}
		seen[node.ID()] = true
		if e.IsDir() != node.IsDir() {
			report.KindMismatch = append(report.KindMismatch, node.ID())
		}
		return true, nil
	})
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("reconcile: %w", err)
	}

	for _, e := range all {
		if !seen[e.ID] {
			report.OrphanMetadata = append(report.OrphanMetadata, e.ID)
		}
	}
	slices.Sort(report.OrphanContent)
	slices.Sort(report.KindMismatch)

	s.logger.Info("reconcile finished",
		"orphan_content", len(report.OrphanContent),
		"orphan_metadata", len(report.OrphanMetadata),
		"kind_mismatch", len(report.KindMismatch),
	)

	if !prune {
		return report, nil
	}

	for _, o := range orphans {
		if err := s.content.Remove(ctx, o.parent, o.id, true); err != nil {
			return report, fmt.Errorf("prune content %s: %w", o.id, err)
		}
		s.cache.Evict(o.id)
	}
	for _, id := range report.OrphanMetadata {
		if err := s.index.Delete(ctx, id); err != nil {
			return report, fmt.Errorf("prune record %s: %w", id, err)
		}
		s.cache.Evict(id)
	}
	report.Pruned = true
	return report, nil
}
