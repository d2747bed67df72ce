package keepsake_test

import (
	"errors"
	"testing"
	"time"

	"keepsake/internal/keepsake"
	"keepsake/internal/testutil"
)

func TestInit_SeedsInitialBackup(t *testing.T) {
	env := testutil.NewTestManager(t)
	history := env.Manager.History()
	if len(history) != 1 || history[0].Type != keepsake.BackupInitial {
		t.Fatalf("history = %+v, want one initial entry", history)
	}
	if history[0].Snapshot() {
		t.Error("initial entry carries a payload")
	}

	// A second Init on the same store does not add another.
	if err := env.Manager.Init(); err != nil {
		t.Fatal(err)
	}
	if n := len(env.Manager.History()); n != 1 {
		t.Errorf("len(History()) = %d after re-init, want 1", n)
	}
}

func TestCreateBackup(t *testing.T) {
	env := testutil.NewTestManager(t)
	m := env.Manager
	seedPhotos(t, m, photo("1", "done"), photo("2", "draft"))

	rec, err := m.CreateBackup("")
	if err != nil {
		t.Fatalf("CreateBackup() error = %v", err)
	}
	if rec.Type != keepsake.BackupManual || rec.Note != "manual backup" {
		t.Errorf("record = %+v", rec)
	}
	if !rec.Snapshot() || rec.Size != int64(len(rec.Data)) {
		t.Errorf("Size = %d, payload %d bytes", rec.Size, len(rec.Data))
	}
	if rec.ItemCount["photoAnalyses"] != 2 {
		t.Errorf("ItemCount = %v", rec.ItemCount)
	}
	if _, err := keepsake.ParseDocument([]byte(rec.Data)); err != nil {
		t.Errorf("payload does not parse: %v", err)
	}

	s := m.Settings().Get()
	now := env.Clock.Now()
	if s.LastBackup == nil || !s.LastBackup.Equal(now) {
		t.Errorf("LastBackup = %v, want %v", s.LastBackup, now)
	}
	if s.NextBackup == nil || !s.NextBackup.Equal(now.Add(7*24*time.Hour)) {
		t.Errorf("NextBackup = %v", s.NextBackup)
	}
	if got := m.History()[0].ID; got != rec.ID {
		t.Errorf("History()[0].ID = %q, want newest %q", got, rec.ID)
	}
}

func TestBackupHistory_PrunedNewestFirst(t *testing.T) {
	env := testutil.NewTestManagerWithConfig(t, keepsake.ManagerConfig{
		Backup: keepsake.BackupPolicy{MaxBackups: 3},
	})
	m := env.Manager

	var ids []string
	for range 5 {
		env.Clock.Advance(time.Hour)
		rec, err := m.CreateBackup("")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, rec.ID)
	}

	history := m.History()
	if len(history) != 3 {
		t.Fatalf("len(History()) = %d, want 3", len(history))
	}
	for i, want := range []string{ids[4], ids[3], ids[2]} {
		if history[i].ID != want {
			t.Errorf("History()[%d].ID = %q, want %q", i, history[i].ID, want)
		}
	}
}

func TestRestoreBackup(t *testing.T) {
	env := testutil.NewTestManager(t)
	m := env.Manager
	seedPhotos(t, m, photo("keep", "done"))

	snap, err := m.CreateBackup("before edits")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Photos().Delete("keep"); err != nil {
		t.Fatal(err)
	}
	seedPhotos(t, m, photo("new", "draft"))
	if err := m.UpdateProfile(keepsake.Fields{"name": "Changed"}); err != nil {
		t.Fatal(err)
	}

	res, err := m.RestoreBackup(snap.ID)
	if err != nil {
		t.Fatalf("RestoreBackup() error = %v", err)
	}
	if ids := photoIDs(m); len(ids) != 1 || ids[0] != "keep" {
		t.Errorf("photos after restore = %v, want [keep]", ids)
	}
	if name := m.Profile().Get().Name; name != "Explorer" {
		t.Errorf("profile name = %q, want Explorer", name)
	}

	history := m.History()
	if history[0].Type != keepsake.BackupRestore || history[0].RestoredBackupID != snap.ID {
		t.Errorf("history[0] = %+v, want restore audit", history[0])
	}
	pre, ok := m.Backup(res.BackupID)
	if !ok || pre.Type != keepsake.BackupPreImport {
		t.Fatalf("pre-restore snapshot = %+v", pre)
	}

	// The pre-restore snapshot can undo the restore.
	if _, err := m.RestoreBackup(pre.ID); err != nil {
		t.Fatal(err)
	}
	if ids := photoIDs(m); len(ids) != 1 || ids[0] != "new" {
		t.Errorf("photos after undo = %v, want [new]", ids)
	}
}

func TestRestoreBackup_KeepsTargetWhenHistoryFull(t *testing.T) {
	env := testutil.NewTestManagerWithConfig(t, keepsake.ManagerConfig{
		Backup: keepsake.BackupPolicy{MaxBackups: 3},
	})
	m := env.Manager
	seedPhotos(t, m, photo("old", "done"))

	var ids []string
	for range 3 {
		env.Clock.Advance(time.Hour)
		rec, err := m.CreateBackup("")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, rec.ID)
	}
	oldest := ids[0]

	env.Clock.Advance(time.Hour)
	if _, err := m.RestoreBackup(oldest); err != nil {
		t.Fatalf("RestoreBackup() error = %v", err)
	}

	history := m.History()
	if len(history) != 3 {
		t.Fatalf("len(History()) = %d, want 3", len(history))
	}
	if history[0].Type != keepsake.BackupRestore || history[0].RestoredBackupID != oldest {
		t.Errorf("history[0] = %+v, want restore audit of %s", history[0], oldest)
	}
	if history[1].Type != keepsake.BackupPreImport {
		t.Errorf("history[1].Type = %v, want pre-import snapshot", history[1].Type)
	}
	if _, ok := m.Backup(oldest); !ok {
		t.Errorf("restored backup %s was pruned", oldest)
	}

	// Later pruning treats it like any other entry.
	env.Clock.Advance(time.Hour)
	if _, err := m.CreateBackup(""); err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Backup(oldest); ok {
		t.Errorf("backup %s survived pruning after the restore finished", oldest)
	}
}

func TestRestoreBackup_Failures(t *testing.T) {
	env := testutil.NewTestManager(t)
	m := env.Manager
	seedPhotos(t, m, photo("1", "done"))

	if _, err := m.RestoreBackup("missing"); !errors.Is(err, keepsake.ErrNotFound) {
		t.Errorf("RestoreBackup(missing) error = %v, want ErrNotFound", err)
	}

	initial := m.History()[0]
	if _, err := m.RestoreBackup(initial.ID); !errors.Is(err, keepsake.ErrParse) {
		t.Errorf("RestoreBackup(audit entry) error = %v, want ErrParse", err)
	}

	corrupt := keepsake.BackupRecord{Type: keepsake.BackupManual, Timestamp: env.Clock.Now(), Data: "{truncated"}
	corrupt.ID = "corrupt"
	history := append([]keepsake.BackupRecord{corrupt}, m.History()...)
	if err := env.KeyStore.Set(keepsake.KindBackupHistory.StorageKey(), history); err != nil {
		t.Fatal(err)
	}
	if _, err := m.RestoreBackup("corrupt"); !errors.Is(err, keepsake.ErrParse) {
		t.Errorf("RestoreBackup(corrupt) error = %v, want ErrParse", err)
	}

	if n := len(m.History()); n != len(history) {
		t.Errorf("failed restores changed history: %d entries, want %d", n, len(history))
	}
	if ids := photoIDs(m); len(ids) != 1 {
		t.Errorf("failed restores changed data: %v", ids)
	}
}

func TestCheckAutoBackup(t *testing.T) {
	env := testutil.NewTestManager(t)
	m := env.Manager

	done, err := m.CheckAutoBackup()
	if err != nil || done {
		t.Fatalf("CheckAutoBackup() = %v, %v before due", done, err)
	}

	env.Clock.Advance(8 * 24 * time.Hour)
	seedPhotos(t, m, photo("1", "done"))

	history := m.History()
	if history[0].Type != keepsake.BackupAuto {
		t.Fatalf("history[0].Type = %s, want auto after a due write", history[0].Type)
	}
	next := m.Settings().Get().NextBackup
	if next == nil || !next.Equal(env.Clock.Now().Add(7*24*time.Hour)) {
		t.Errorf("NextBackup = %v", next)
	}

	// Not due again until the next interval.
	seedPhotos(t, m, photo("2", "done"))
	if n := len(m.History()); n != len(history) {
		t.Errorf("len(History()) = %d, want %d", n, len(history))
	}
}

func TestCheckAutoBackup_NeverScheduledAndDisabled(t *testing.T) {
	env := testutil.NewTestManager(t)
	m := env.Manager

	if err := m.UpdateSettings(keepsake.Fields{"nextBackup": nil}); err != nil {
		t.Fatal(err)
	}
	done, err := m.CheckAutoBackup()
	if err != nil || !done {
		t.Errorf("CheckAutoBackup() = %v, %v; want a backup when never scheduled", done, err)
	}

	if err := m.UpdateSettings(keepsake.Fields{"autoBackup": false, "nextBackup": nil}); err != nil {
		t.Fatal(err)
	}
	done, err = m.CheckAutoBackup()
	if err != nil || done {
		t.Errorf("CheckAutoBackup() = %v, %v; want none when disabled", done, err)
	}
}
