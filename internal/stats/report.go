package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/stopit/internal/model"
	"github.com/verte-zerg/stopit/internal/store"
)

// SessionReport holds the derived statistics of one stored session.
type SessionReport struct {
	Session  model.SessionRecord
	Outcomes []model.TrialOutcome
	Blocks   []BlockResult
	SSDTrack []float64
}

// NewSessionReport derives block summaries and the SSD track from a log.
func NewSessionReport(rec model.SessionRecord, outcomes []model.TrialOutcome) SessionReport {
	return SessionReport{
		Session:  rec,
		Outcomes: outcomes,
		Blocks:   SummarizeBlocks(outcomes),
		SSDTrack: SSDTrack(outcomes),
	}
}

// BuildReport loads sessions matching cfg and derives their summaries.
func BuildReport(ctx context.Context, st *store.Store, cfg model.HistoryConfig) ([]SessionReport, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	reports := make([]SessionReport, 0, len(sessions))
	for _, rec := range sessions {
		outcomes, err := st.ListOutcomes(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, NewSessionReport(rec, outcomes))
	}
	return reports, nil
}

// RenderSession prints a session header, its block table and SSD track.
func RenderSession(w io.Writer, r SessionReport) error {
	rec := r.Session
	if _, err := fmt.Fprintf(w, "Participant %s · session %s · %s · %s\n",
		rec.Participant.ID, rec.Participant.Session, rec.StartedAt.Local().Format("2006-01-02 15:04"), rec.Status); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trials: %d  Final SSD: %d ms  File: %s\n", len(r.Outcomes), rec.FinalSSDMs, rec.OutputPath); err != nil {
		return err
	}
	if err := RenderBlockTable(w, r.Blocks); err != nil {
		return err
	}
	if len(r.SSDTrack) > 0 {
		if _, err := fmt.Fprintf(w, "SSD track: %s\n", Sparkline(r.SSDTrack)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderHistory prints every session report.
func RenderHistory(w io.Writer, reports []SessionReport) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	for _, r := range reports {
		if err := RenderSession(w, r); err != nil {
			return err
		}
	}
	return nil
}
