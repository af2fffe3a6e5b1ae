package sqlite

import (
	"testing"
	"time"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testPersona(id string) domain.Persona {
	return domain.Persona{
		ID:             id,
		Name:           "Test Buyer",
		Category:       "price",
		SystemPrompt:   "You resist on price.",
		Traits:         []string{"stubborn"},
		AttackPatterns: []string{"lowball"},
		Active:         true,
		CreatedAt:      time.Now(),
	}
}

func testBattle(id, scenarioID string, score int, conflictResolved, priceMaintained bool) domain.Battle {
	return domain.Battle{
		ID:               id,
		BatchID:          "batch-1",
		ScenarioID:       scenarioID,
		PersonaID:        "p1",
		Tier:             domain.TierStandard,
		RefereeScore:     score,
		SuccessScore:     7,
		ConflictResolved: conflictResolved,
		PriceMaintained:  priceMaintained,
		MarginIntegrity:  0.9,
		CostUSD:          0.05,
		Transcript: domain.Transcript{
			{Role: "buyer", Content: "Too expensive."},
			{Role: "agent", Content: "The comps support the number."},
		},
		WinningRebuttal: "The comps support the number.",
		CreatedAt:       time.Now(),
	}
}

// ─── Persona Repository ─────────────────────────────────────────────────────

func TestUpsertPersona_InsertAndUpdate(t *testing.T) {
	db := newTestDB(t)

	p := testPersona("p1")
	if err := db.UpsertPersona(p); err != nil {
		t.Fatalf("UpsertPersona() error: %v", err)
	}

	p.Name = "Renamed Buyer"
	if err := db.UpsertPersona(p); err != nil {
		t.Fatalf("UpsertPersona() update error: %v", err)
	}

	got, err := db.GetPersona("p1")
	if err != nil {
		t.Fatalf("GetPersona() error: %v", err)
	}
	if got.Name != "Renamed Buyer" {
		t.Errorf("Name = %q, want %q", got.Name, "Renamed Buyer")
	}
	if len(got.Traits) != 1 || got.Traits[0] != "stubborn" {
		t.Errorf("Traits = %v, want [stubborn]", got.Traits)
	}
}

func TestGetPersona_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetPersona("missing")
	if err != domain.ErrPersonaNotFound {
		t.Errorf("err = %v, want ErrPersonaNotFound", err)
	}
}

func TestListActivePersonas_ExcludesInactive(t *testing.T) {
	db := newTestDB(t)

	active := testPersona("p1")
	inactive := testPersona("p2")
	inactive.Active = false
	if err := db.UpsertPersona(active); err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertPersona(inactive); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListActivePersonas()
	if err != nil {
		t.Fatalf("ListActivePersonas() error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("got %d personas, want only p1", len(got))
	}
}

// ─── Battle Repository ──────────────────────────────────────────────────────

func TestInsertAndGetBattle(t *testing.T) {
	db := newTestDB(t)

	b := testBattle("b1", "", 88, true, true)
	if err := db.InsertBattle(b); err != nil {
		t.Fatalf("InsertBattle() error: %v", err)
	}

	got, err := db.GetBattle("b1")
	if err != nil {
		t.Fatalf("GetBattle() error: %v", err)
	}
	if got.RefereeScore != 88 {
		t.Errorf("RefereeScore = %d, want 88", got.RefereeScore)
	}
	if len(got.Transcript) != 2 {
		t.Errorf("Transcript turns = %d, want 2", len(got.Transcript))
	}
	if got.WinningRebuttal != b.WinningRebuttal {
		t.Errorf("WinningRebuttal = %q, want %q", got.WinningRebuttal, b.WinningRebuttal)
	}
}

func TestGetBattle_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetBattle("missing")
	if err != domain.ErrBattleNotFound {
		t.Errorf("err = %v, want ErrBattleNotFound", err)
	}
}

func TestListBattlesByScenario(t *testing.T) {
	db := newTestDB(t)

	if err := db.InsertBattle(testBattle("b1", "sc1", 80, true, true)); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertBattle(testBattle("b2", "sc1", 70, false, true)); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertBattle(testBattle("b3", "other", 90, true, true)); err != nil {
		t.Fatal(err)
	}

	got, err := db.ListBattlesByScenario("sc1")
	if err != nil {
		t.Fatalf("ListBattlesByScenario() error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d battles, want 2", len(got))
	}
}

// ─── Billing Ledger ─────────────────────────────────────────────────────────

func TestSpendSince_SumsOnlyMatchingEnvAndWindow(t *testing.T) {
	db := newTestDB(t)

	now := time.Now().UTC()
	entries := []domain.LedgerEntry{
		{Env: domain.EnvSandbox, AmountUSD: 1.00, Timestamp: now},
		{Env: domain.EnvSandbox, AmountUSD: 0.50, Timestamp: now.Add(-time.Hour)},
		{Env: domain.EnvProduction, AmountUSD: 9.99, Timestamp: now}, // other env
		{Env: domain.EnvSandbox, AmountUSD: 2.00, Timestamp: now.Add(-48 * time.Hour)}, // outside window
	}
	for _, e := range entries {
		if _, err := db.AppendLedgerEntry(e); err != nil {
			t.Fatalf("AppendLedgerEntry() error: %v", err)
		}
	}

	got, err := db.SpendSince(domain.EnvSandbox, now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("SpendSince() error: %v", err)
	}
	if got != 1.50 {
		t.Errorf("SpendSince() = %v, want 1.50", got)
	}
}

func TestSpendSince_EmptyLedger(t *testing.T) {
	db := newTestDB(t)
	got, err := db.SpendSince(domain.EnvSandbox, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("SpendSince() error: %v", err)
	}
	if got != 0 {
		t.Errorf("SpendSince() = %v, want 0", got)
	}
}

// ─── Scenario Repository ────────────────────────────────────────────────────

func TestScenarioLifecycle(t *testing.T) {
	db := newTestDB(t)

	sc := domain.ScenarioInjection{
		ID:            "sc1",
		Objection:     "Your assignment fee is outrageous.",
		Status:        domain.ScenarioPending,
		TotalSessions: 3,
		CreatedAt:     time.Now(),
	}
	if err := db.InsertScenario(sc); err != nil {
		t.Fatalf("InsertScenario() error: %v", err)
	}

	if err := db.SetScenarioStatus("sc1", domain.ScenarioRunning); err != nil {
		t.Fatalf("SetScenarioStatus() error: %v", err)
	}

	for i := 1; i <= 3; i++ {
		completed, total, err := db.IncrementCompletedSessions("sc1")
		if err != nil {
			t.Fatalf("IncrementCompletedSessions() error: %v", err)
		}
		if completed != i || total != 3 {
			t.Errorf("after increment %d: completed=%d total=%d", i, completed, total)
		}
	}

	// Guard: counter never exceeds total
	completed, _, err := db.IncrementCompletedSessions("sc1")
	if err != nil {
		t.Fatalf("guarded increment error: %v", err)
	}
	if completed != 3 {
		t.Errorf("completed = %d after overflow attempt, want 3", completed)
	}
}

func TestCompleteScenario_IdempotencyGuard(t *testing.T) {
	db := newTestDB(t)

	sc := domain.ScenarioInjection{
		ID: "sc1", Objection: "obj", Status: domain.ScenarioRunning,
		TotalSessions: 1, CreatedAt: time.Now(),
	}
	if err := db.InsertScenario(sc); err != nil {
		t.Fatal(err)
	}

	bts := []domain.ScenarioBreakthrough{{
		ID: "bt1", ScenarioID: "sc1", BattleID: "b1", Rank: 1,
		RefereeScore: 95, ConflictResolved: true, PriceMaintained: true,
		WinningRebuttal: "rebuttal", CreatedAt: time.Now(),
	}}
	if err := db.CompleteScenario("sc1", bts); err != nil {
		t.Fatalf("CompleteScenario() error: %v", err)
	}

	// Second completion must hit the status guard and write nothing.
	err := db.CompleteScenario("sc1", bts)
	if err != domain.ErrScenarioCompleted {
		t.Errorf("repeat CompleteScenario() err = %v, want ErrScenarioCompleted", err)
	}

	got, err := db.ListBreakthroughs("sc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("breakthroughs = %d, want 1", len(got))
	}

	final, err := db.GetScenario("sc1")
	if err != nil {
		t.Fatal(err)
	}
	if final.Status != domain.ScenarioCompleted || !final.Top3Identified {
		t.Errorf("scenario = %+v, want completed with top_3_identified", final)
	}
}

func TestGetScenario_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetScenario("missing")
	if err != domain.ErrScenarioNotFound {
		t.Errorf("err = %v, want ErrScenarioNotFound", err)
	}
}

// ─── Tactic Repository ──────────────────────────────────────────────────────

func TestInsertTactic_UniqueBattleConstraint(t *testing.T) {
	db := newTestDB(t)

	t1 := domain.Tactic{ID: "t1", BattleID: "b1", Rebuttal: "r", IsSynthetic: true,
		Priority: domain.DefaultTacticPriority, CreatedAt: time.Now()}
	if err := db.InsertTactic(t1); err != nil {
		t.Fatalf("InsertTactic() error: %v", err)
	}

	t2 := t1
	t2.ID = "t2"
	if err := db.InsertTactic(t2); err == nil {
		t.Error("second tactic for the same battle should violate the unique constraint")
	}
}

func TestGetTacticByBattle_AbsentIsNilNil(t *testing.T) {
	db := newTestDB(t)
	got, err := db.GetTacticByBattle("missing")
	if err != nil {
		t.Fatalf("GetTacticByBattle() error: %v", err)
	}
	if got != nil {
		t.Errorf("got = %+v, want nil", got)
	}
}

func TestActivateTactic(t *testing.T) {
	db := newTestDB(t)

	tac := domain.Tactic{ID: "t1", BattleID: "b1", Rebuttal: "r",
		Priority: domain.DefaultTacticPriority, CreatedAt: time.Now()}
	if err := db.InsertTactic(tac); err != nil {
		t.Fatal(err)
	}

	if err := db.ActivateTactic("t1"); err != nil {
		t.Fatalf("ActivateTactic() error: %v", err)
	}

	active, err := db.ListActiveTactics()
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != "t1" || !active[0].Active {
		t.Errorf("active tactics = %+v, want t1 active", active)
	}
}

func TestActivateTactic_NotFound(t *testing.T) {
	db := newTestDB(t)
	if err := db.ActivateTactic("missing"); err != domain.ErrTacticNotFound {
		t.Errorf("err = %v, want ErrTacticNotFound", err)
	}
}

// ─── Kill Switch ────────────────────────────────────────────────────────────

func TestKillSwitch_DefaultInactive(t *testing.T) {
	db := newTestDB(t)
	st, err := db.KillSwitch()
	if err != nil {
		t.Fatalf("KillSwitch() error: %v", err)
	}
	if st.Active {
		t.Error("kill switch should default to inactive")
	}
}

func TestSetKillSwitch_RoundTrip(t *testing.T) {
	db := newTestDB(t)

	on := domain.KillSwitchState{Active: true, ActivatedAt: time.Now(), ActivatedBy: "admin"}
	if err := db.SetKillSwitch(on); err != nil {
		t.Fatalf("SetKillSwitch() error: %v", err)
	}

	st, err := db.KillSwitch()
	if err != nil {
		t.Fatal(err)
	}
	if !st.Active || st.ActivatedBy != "admin" {
		t.Errorf("state = %+v, want active by admin", st)
	}

	if err := db.SetKillSwitch(domain.KillSwitchState{Active: false}); err != nil {
		t.Fatal(err)
	}
	st, _ = db.KillSwitch()
	if st.Active {
		t.Error("kill switch should be inactive after clear")
	}
}
