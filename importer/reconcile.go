// Package importer merges batches of externally sourced credentials (a
// browser export, a bulk paste) into the vault through an unlocked session,
// applying the same duplicate rules as interactive save. The batch path is
// strictly non-interactive: exact duplicates are skipped, never prompted.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmcleod/silentlock/vault"
)

// Failure records one candidate that could not be imported.
type Failure struct {
	Index int
	Site  string
	Err   error
}

// Report summarizes a reconciliation run.
type Report struct {
	Imported          int
	SkippedDuplicates int
	Similar           int
	Failed            int
	Failures          []Failure
}

// Reconcile merges a batch of candidates into the vault. Exact duplicates
// are skipped silently and counted; individual failures are recorded with
// their cause and do not abort the rest of the batch. Only a cancelled
// context or a locked session stops the run early, and the partial report
// is returned alongside the error.
func Reconcile(ctx context.Context, session *vault.Session, batch []vault.Candidate) (*Report, error) {
	report := &Report{}

	for i, cand := range batch {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if cand.Source == "" {
			cand.Source = vault.SourceImported
		}

		_, advisories, err := session.Add(ctx, cand)
		switch {
		case err == nil:
			report.Imported++
			report.Similar += countSimilar(advisories)
		case errors.Is(err, vault.ErrDuplicateRecord):
			report.SkippedDuplicates++
		case errors.Is(err, vault.ErrSessionLocked):
			// The whole batch is dead without a session; stop here.
			return report, err
		default:
			report.Failed++
			report.Failures = append(report.Failures, Failure{
				Index: i,
				Site:  cand.SiteName,
				Err:   err,
			})
			slog.Debug("import: candidate failed",
				"index", i, "site", cand.SiteName, "error", err)
		}
	}

	return report, nil
}

func countSimilar(matches []vault.Match) int {
	n := 0
	for _, m := range matches {
		if m.Kind == vault.MatchSimilarDomain {
			n++
		}
	}
	return n
}

// String renders the report the way the CLI prints it.
func (r *Report) String() string {
	return fmt.Sprintf("imported %d, skipped %d duplicates, %d failed",
		r.Imported, r.SkippedDuplicates, r.Failed)
}
