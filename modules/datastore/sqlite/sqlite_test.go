package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/witxhhaven/fig-design-assistant/internal/session"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	if err := migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	if err := migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSettingsFreshDatabaseIsEmpty(t *testing.T) {
	t.Parallel()

	store := &settingsStore{db: openTestDB(t)}
	st, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st != (session.Settings{}) {
		t.Errorf("fresh settings = %+v, want zero value", st)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &settingsStore{db: openTestDB(t)}

	if err := store.SetCredential(ctx, "sk-123"); err != nil {
		t.Fatalf("SetCredential: %v", err)
	}
	if err := store.SetModel(ctx, "claude-sonnet-4-5"); err != nil {
		t.Fatalf("SetModel: %v", err)
	}
	if err := store.SetRules(ctx, "Use the brand palette."); err != nil {
		t.Fatalf("SetRules: %v", err)
	}
	if err := store.SetCreativeMode(ctx, true); err != nil {
		t.Fatalf("SetCreativeMode: %v", err)
	}

	st, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := session.Settings{
		Credential:   "sk-123",
		Model:        "claude-sonnet-4-5",
		Rules:        "Use the brand palette.",
		CreativeMode: true,
	}
	if st != want {
		t.Errorf("Load = %+v, want %+v", st, want)
	}
}

func TestSettingsOverwrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &settingsStore{db: openTestDB(t)}

	if err := store.SetCredential(ctx, "sk-old"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetCredential(ctx, "sk-new"); err != nil {
		t.Fatal(err)
	}

	key, err := store.Credential(ctx)
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if key != "sk-new" {
		t.Errorf("Credential = %q, want sk-new", key)
	}
}

func TestCredentialMissingReadsEmpty(t *testing.T) {
	t.Parallel()

	store := &settingsStore{db: openTestDB(t)}
	key, err := store.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential: %v", err)
	}
	if key != "" {
		t.Errorf("Credential = %q, want empty", key)
	}
}

func TestCreativeModeToggle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &settingsStore{db: openTestDB(t)}

	if err := store.SetCreativeMode(ctx, true); err != nil {
		t.Fatal(err)
	}
	if err := store.SetCreativeMode(ctx, false); err != nil {
		t.Fatal(err)
	}

	st, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.CreativeMode {
		t.Error("CreativeMode = true, want false after toggle off")
	}
}

func TestJournalRecordAndPrune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	journal := &checkpointJournal{db: openTestDB(t)}

	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)

	if err := journal.RecordCheckpoint(ctx, "Before assistant edit old", old); err != nil {
		t.Fatalf("RecordCheckpoint: %v", err)
	}
	if err := journal.RecordCheckpoint(ctx, "Before assistant edit new", now); err != nil {
		t.Fatalf("RecordCheckpoint: %v", err)
	}

	pruned, err := journal.PruneBefore(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	n, err := journal.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestJournalPruneEmpty(t *testing.T) {
	t.Parallel()

	journal := &checkpointJournal{db: openTestDB(t)}
	pruned, err := journal.PruneBefore(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("PruneBefore: %v", err)
	}
	if pruned != 0 {
		t.Errorf("pruned = %d, want 0", pruned)
	}
}
