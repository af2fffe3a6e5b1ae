package scenario

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/battle"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/budget"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/killswitch"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/app/referee"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// countingSim tags each transcript with a sequence number so the judge
// can hand out distinct verdicts per child battle.
type countingSim struct {
	n int
}

func (s *countingSim) Run(ctx context.Context, p domain.Persona, tier domain.Tier, objection string) (domain.Transcript, float64, error) {
	s.n++
	return domain.Transcript{
		{Role: "buyer", Content: objection},
		{Role: "agent", Content: fmt.Sprintf("session=%d", s.n)},
	}, 0.01, nil
}

// sessionJudge maps the session tag to a scripted verdict.
type sessionJudge struct {
	verdicts []domain.Verdict // indexed by session-1
}

func (j sessionJudge) Judge(ctx context.Context, transcript string) (domain.Verdict, float64, error) {
	for i, v := range j.verdicts {
		if strings.Contains(transcript, fmt.Sprintf("session=%d", i+1)) {
			return v, 0, nil
		}
	}
	return domain.Verdict{RefereeScore: 10}, 0, nil
}

// flakySim fails the listed calls and tags the rest like countingSim.
type flakySim struct {
	n      int
	failOn map[int]bool
}

func (s *flakySim) Run(ctx context.Context, p domain.Persona, tier domain.Tier, objection string) (domain.Transcript, float64, error) {
	s.n++
	if s.failOn[s.n] {
		return nil, 0, fmt.Errorf("provider timeout")
	}
	return domain.Transcript{
		{Role: "buyer", Content: objection},
		{Role: "agent", Content: fmt.Sprintf("session=%d", s.n)},
	}, 0.01, nil
}

func newTestInjector(t *testing.T, db *sqlite.DB, judge referee.TranscriptJudge) *Injector {
	t.Helper()
	err := db.UpsertPersona(domain.Persona{
		ID: "p1", Name: "Buyer", SystemPrompt: "resist", Active: true, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}

	gov := budget.NewGovernor(db, budget.DefaultConfig())
	ks := killswitch.NewController(db, nil)
	// maxConcurrent 1 keeps the session sequence deterministic
	orch := battle.NewOrchestrator(db, gov, ks, &countingSim{}, referee.NewScorer(judge), 1)
	return NewInjector(db, orch)
}

func TestInject_Validation(t *testing.T) {
	db := newTestDB(t)
	inj := newTestInjector(t, db, sessionJudge{})

	if _, err := inj.Inject(context.Background(), "", 5); err == nil {
		t.Error("empty objection should be rejected")
	}
	if _, err := inj.Inject(context.Background(), "obj", 0); err == nil {
		t.Error("non-positive session count should be rejected")
	}
}

func TestRun_FullFanOutRanksTop3(t *testing.T) {
	db := newTestDB(t)
	judge := sessionJudge{verdicts: []domain.Verdict{
		{RefereeScore: 85, ConflictResolved: true, PriceMaintained: true, WinningRebuttal: "r1"},
		{RefereeScore: 95, ConflictResolved: true, PriceMaintained: true, WinningRebuttal: "r2"},
		{RefereeScore: 40, ConflictResolved: false, PriceMaintained: true, WinningRebuttal: "r3"}, // filtered out
		{RefereeScore: 90, ConflictResolved: true, PriceMaintained: true, WinningRebuttal: "r4"},
		{RefereeScore: 70, ConflictResolved: true, PriceMaintained: false, WinningRebuttal: "r5"},
	}}
	inj := newTestInjector(t, db, judge)

	ctx := context.Background()
	sc, err := inj.Inject(ctx, "The rehab estimate is fantasy.", 5)
	if err != nil {
		t.Fatalf("Inject() error: %v", err)
	}
	if err := inj.Run(ctx, sc.ID); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	got, bts, err := inj.Status(sc.ID)
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if got.Status != domain.ScenarioCompleted || !got.Top3Identified {
		t.Errorf("scenario = %+v, want completed with top 3 identified", got)
	}
	if got.CompletedSessions != 5 {
		t.Errorf("CompletedSessions = %d, want 5", got.CompletedSessions)
	}

	// conflict_resolved filter drops session 3; price_maintained desc then
	// referee_score desc orders the rest: 95, 90, 85 (session 5 misses top 3).
	if len(bts) != 3 {
		t.Fatalf("breakthroughs = %d, want 3", len(bts))
	}
	wantScores := []int{95, 90, 85}
	for i, bt := range bts {
		if bt.Rank != i+1 {
			t.Errorf("breakthrough %d rank = %d, want %d", i, bt.Rank, i+1)
		}
		if bt.RefereeScore != wantScores[i] {
			t.Errorf("rank %d score = %d, want %d", i+1, bt.RefereeScore, wantScores[i])
		}
	}
}

func TestRun_RankingIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	judge := sessionJudge{verdicts: []domain.Verdict{
		{RefereeScore: 80, ConflictResolved: true, PriceMaintained: true, WinningRebuttal: "r1"},
	}}
	inj := newTestInjector(t, db, judge)

	ctx := context.Background()
	sc, err := inj.Inject(ctx, "obj", 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := inj.Run(ctx, sc.ID); err != nil {
		t.Fatal(err)
	}

	// Direct re-rank after completion is a logged no-op, never a duplicate.
	if err := inj.Rank(sc.ID); err != nil {
		t.Fatalf("repeat Rank() error: %v", err)
	}

	bts, err := db.ListBreakthroughs(sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bts) != 1 {
		t.Errorf("breakthroughs = %d after re-rank, want 1", len(bts))
	}

	// Re-running a completed scenario surfaces the completed sentinel.
	if err := inj.Run(ctx, sc.ID); err != domain.ErrScenarioCompleted {
		t.Errorf("Run() on completed scenario = %v, want ErrScenarioCompleted", err)
	}
}

func TestRun_ResumeFansOutOnlyTheRemainder(t *testing.T) {
	db := newTestDB(t)
	judge := sessionJudge{verdicts: []domain.Verdict{
		{RefereeScore: 80, ConflictResolved: true, WinningRebuttal: "r1"},
		{}, // call 2 never reaches the judge
		{RefereeScore: 90, ConflictResolved: true, WinningRebuttal: "r3"},
	}}
	inj := newTestInjector(t, db, judge)

	// Call 2 fails, so the first pass of a 2-session scenario finishes one.
	sim := &flakySim{failOn: map[int]bool{2: true}}
	inj.orch = battle.NewOrchestrator(db, budget.NewGovernor(db, budget.DefaultConfig()),
		killswitch.NewController(db, nil), sim, referee.NewScorer(judge), 1)

	ctx := context.Background()
	sc, err := inj.Inject(ctx, "obj", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := inj.Run(ctx, sc.ID); err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	got, _, err := inj.Status(sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.ScenarioRunning || got.CompletedSessions != 1 {
		t.Fatalf("after partial failure: status = %s, sessions = %d, want running/1",
			got.Status, got.CompletedSessions)
	}

	// Resume runs exactly one more battle, never the full total again.
	if err := inj.Run(ctx, sc.ID); err != nil {
		t.Fatalf("resume Run() error: %v", err)
	}
	if sim.n != 3 {
		t.Errorf("simulator calls = %d, want 3 (2 + 1 resumed)", sim.n)
	}

	got, bts, err := inj.Status(sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.ScenarioCompleted || got.CompletedSessions != 2 {
		t.Errorf("after resume: status = %s, sessions = %d, want completed/2",
			got.Status, got.CompletedSessions)
	}
	if len(bts) != 2 {
		t.Errorf("breakthroughs = %d, want 2", len(bts))
	}

	battles, err := db.ListBattlesByScenario(sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(battles) != 2 {
		t.Errorf("persisted battles = %d, want exactly the owed sessions", len(battles))
	}
}

func TestRun_FullCounterRanksWithoutNewBattles(t *testing.T) {
	db := newTestDB(t)
	judge := sessionJudge{verdicts: []domain.Verdict{
		{RefereeScore: 75, ConflictResolved: true, WinningRebuttal: "r1"},
	}}
	inj := newTestInjector(t, db, judge)

	// Counter full but status still running: an interruption between the
	// final counter bump and the rank leaves exactly this state behind.
	ctx := context.Background()
	sc, err := inj.Inject(ctx, "obj", 1)
	if err != nil {
		t.Fatal(err)
	}
	err = db.InsertBattle(domain.Battle{
		ID: "b1", BatchID: "batch", ScenarioID: sc.ID, PersonaID: "p1",
		Tier: domain.TierStandard, RefereeScore: 75, ConflictResolved: true,
		WinningRebuttal: "r1",
		Transcript:      domain.Transcript{{Role: "agent", Content: "session=1"}},
		CreatedAt:       time.Now(),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := db.IncrementCompletedSessions(sc.ID); err != nil {
		t.Fatal(err)
	}
	if err := db.SetScenarioStatus(sc.ID, domain.ScenarioRunning); err != nil {
		t.Fatal(err)
	}

	sim := &flakySim{failOn: map[int]bool{1: true}} // any battle attempt would fail loudly
	inj.orch = battle.NewOrchestrator(db, budget.NewGovernor(db, budget.DefaultConfig()),
		killswitch.NewController(db, nil), sim, referee.NewScorer(judge), 1)

	if err := inj.Run(ctx, sc.ID); err != nil {
		t.Fatalf("Run() on full counter error: %v", err)
	}
	if sim.n != 0 {
		t.Errorf("simulator calls = %d, want 0 — no sessions outstanding", sim.n)
	}

	got, bts, err := inj.Status(sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.ScenarioCompleted || len(bts) != 1 {
		t.Errorf("status = %s, breakthroughs = %d, want completed with 1", got.Status, len(bts))
	}
}

func TestRank_FewerQualifiersThanThree(t *testing.T) {
	db := newTestDB(t)
	judge := sessionJudge{verdicts: []domain.Verdict{
		{RefereeScore: 60, ConflictResolved: true, WinningRebuttal: "only one"},
		{RefereeScore: 99, ConflictResolved: false, WinningRebuttal: "disqualified"},
	}}
	inj := newTestInjector(t, db, judge)

	ctx := context.Background()
	sc, err := inj.Inject(ctx, "obj", 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := inj.Run(ctx, sc.ID); err != nil {
		t.Fatal(err)
	}

	bts, err := db.ListBreakthroughs(sc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(bts) != 1 {
		t.Fatalf("breakthroughs = %d, want 1 — no padding to three", len(bts))
	}
	if bts[0].Rank != 1 || bts[0].WinningRebuttal != "only one" {
		t.Errorf("breakthrough = %+v, want the single qualifier at rank 1", bts[0])
	}
}

func TestStatus_UnknownScenario(t *testing.T) {
	db := newTestDB(t)
	inj := newTestInjector(t, db, sessionJudge{})

	_, _, err := inj.Status("missing")
	if err != domain.ErrScenarioNotFound {
		t.Errorf("err = %v, want ErrScenarioNotFound", err)
	}
}
