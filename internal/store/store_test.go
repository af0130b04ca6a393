package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/stopit/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "stopit.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func testOutcomes() []model.TrialOutcome {
	return []model.TrialOutcome{
		{Block: 0, Trial: 1, Spec: model.TrialSpec{Direction: model.Left}, Response: model.KeyLeft, RTMs: 312, Correct: true, Feedback: "correct response"},
		{Block: 0, Trial: 2, Spec: model.TrialSpec{Direction: model.Right, HasSignal: true}, Response: model.KeyNone, SignalRequestMs: 200, SignalActualMs: 192, Correct: true, Feedback: "correct stop"},
		{Block: 1, Trial: 1, Spec: model.TrialSpec{Direction: model.Right}, Response: model.KeyNone, Feedback: "too slow"},
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	var ids []string
	for i, p := range []string{"s01", "s02", "s01"} {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		rec := model.SessionRecord{
			Participant: model.Participant{ID: p, Session: "1"},
			StartedAt:   start,
			EndedAt:     start.Add(20 * time.Minute),
			Status:      model.StatusCompleted,
			FinalSSDMs:  250,
			OutputPath:  "out.csv",
		}
		id, err := st.InsertSession(ctx, rec, testOutcomes())
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		if id == "" {
			t.Fatalf("expected generated session id")
		}
		ids = append(ids, id)
	}

	all, err := st.ListSessions(ctx, model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 3 || all[0].ID != ids[0] || all[2].ID != ids[2] {
		t.Fatalf("unexpected sessions: %+v", all)
	}
	if all[0].Trials != 3 || all[0].FinalSSDMs != 250 {
		t.Fatalf("unexpected session record: %+v", all[0])
	}

	filtered, err := st.ListSessions(ctx, model.HistoryConfig{Participant: "s01", Last: 1})
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != ids[2] {
		t.Fatalf("expected most recent s01 session, got %+v", filtered)
	}

	since := time.Unix(0, 0).Add(90 * time.Minute)
	recent, err := st.ListSessions(ctx, model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != ids[2] {
		t.Fatalf("expected one session after since, got %+v", recent)
	}
}

func TestListOutcomesRoundTripsLog(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	want := testOutcomes()
	id, err := st.InsertSession(ctx, model.SessionRecord{Status: model.StatusAborted}, want)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	got, err := st.ListOutcomes(ctx, id)
	if err != nil {
		t.Fatalf("list outcomes: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d outcomes, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("outcome %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
