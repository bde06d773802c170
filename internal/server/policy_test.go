package server

import (
	"path/filepath"
	"testing"

	"github.com/danmuck/scipnet/internal/deepwell"
	"github.com/danmuck/scipnet/internal/protocol"
	"github.com/danmuck/scipnet/internal/testutil/testlog"
)

func openSeeded(t *testing.T) *deepwell.Store {
	t.Helper()
	store, err := deepwell.Open(filepath.Join(t.TempDir(), "deepwell.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	if err := store.SeedDemo(); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func seededUser(t *testing.T, db Deepwell, id int64) deepwell.User {
	t.Helper()
	user, err := db.UserByID(id)
	if err != nil {
		t.Fatalf("user %d: %v", id, err)
	}
	return user
}

func TestDecideSCP(t *testing.T) {
	testlog.Start(t)
	db := openSeeded(t)
	director := seededUser(t, db, 1)
	operative := seededUser(t, db, 3)

	t.Run("clearance meets file level", func(t *testing.T) {
		env, verdict, err := Decide(db, director, "SCP", 49)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if verdict != VerdictGranted || env.Type != protocol.MsgAccessGranted {
			t.Fatalf("verdict = %v type = %v", verdict, env.Type)
		}
		file := env.Data["file"].(map[string]any)
		if file["name"] != "Plague Doctor" {
			t.Fatalf("file = %v", file)
		}
	})

	t.Run("clearance below file level", func(t *testing.T) {
		env, verdict, err := Decide(db, operative, "SCP", 49)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if verdict != VerdictRedacted || env.Type != protocol.MsgAccessRedacted {
			t.Fatalf("verdict = %v type = %v", verdict, env.Type)
		}
		if env.Data["user_clear"] != "Level 1 - Unrestricted" {
			t.Fatalf("user_clear = %v", env.Data["user_clear"])
		}
		if env.Data["needed_clear"] != "Level 6 - Cosmic Top Secret" {
			t.Fatalf("needed_clear = %v", env.Data["needed_clear"])
		}
		if env.Data["needed_hex"] != "#850005" {
			t.Fatalf("needed_hex = %v", env.Data["needed_hex"])
		}
	})

	t.Run("missing record is expunged", func(t *testing.T) {
		env, verdict, err := Decide(db, director, "SCP", 173)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if verdict != VerdictExpunged || env.Type != protocol.MsgAccessExpunged {
			t.Fatalf("verdict = %v type = %v", verdict, env.Type)
		}
		if env.Data["f_id"] != int64(173) {
			t.Fatalf("f_id = %v", env.Data["f_id"])
		}
	})
}

func TestDecideUser(t *testing.T) {
	testlog.Start(t)
	db := openSeeded(t)
	operative := seededUser(t, db, 3)

	env, verdict, err := Decide(db, operative, "USER", 1)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if verdict != VerdictRedacted {
		t.Fatalf("verdict = %v", verdict)
	}
	if env.Data["needed_clear"] != "Level 6 - Cosmic Top Secret" {
		t.Fatalf("needed_clear = %v", env.Data["needed_clear"])
	}

	env, verdict, err = Decide(db, operative, "user", 3)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if verdict != VerdictGranted {
		t.Fatalf("verdict = %v", verdict)
	}
	file := env.Data["file"].(map[string]any)
	if _, leaked := file["password_hash"]; leaked {
		t.Fatal("password hash leaked into file payload")
	}
}

func TestDecideSite(t *testing.T) {
	testlog.Start(t)
	db := openSeeded(t)
	director := seededUser(t, db, 1)
	operative := seededUser(t, db, 3)

	t.Run("high clearance reads any site", func(t *testing.T) {
		_, verdict, err := Decide(db, director, "SITE", 6)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if verdict != VerdictGranted {
			t.Fatalf("verdict = %v", verdict)
		}
	})

	t.Run("low clearance reads own posting", func(t *testing.T) {
		_, verdict, err := Decide(db, operative, "SITE", 6)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if verdict != VerdictGranted {
			t.Fatalf("verdict = %v", verdict)
		}
	})

	t.Run("low clearance blocked elsewhere", func(t *testing.T) {
		env, verdict, err := Decide(db, operative, "SITE", 1123)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if verdict != VerdictRedacted {
			t.Fatalf("verdict = %v", verdict)
		}
		if env.Data["needed_clear"] != "Level 3 - Confidential" {
			t.Fatalf("needed_clear = %v", env.Data["needed_clear"])
		}
	})
}

func TestDecideTaskForce(t *testing.T) {
	testlog.Start(t)
	db := openSeeded(t)
	operative := seededUser(t, db, 3)

	env, verdict, err := Decide(db, operative, "MTF", 3)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if verdict != VerdictGranted {
		t.Fatalf("verdict = %v", verdict)
	}
	file := env.Data["file"].(map[string]any)
	if file["nickname"] != "Red Right Hand" {
		t.Fatalf("file = %v", file)
	}
}

func TestDecideUnknownType(t *testing.T) {
	testlog.Start(t)
	db := openSeeded(t)
	director := seededUser(t, db, 1)

	env, verdict, err := Decide(db, director, "GOC", 1)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if verdict != VerdictExpunged || env.Type != protocol.MsgAccessExpunged {
		t.Fatalf("verdict = %v type = %v", verdict, env.Type)
	}
	if env.Data["f_type"] != "GOC" {
		t.Fatalf("f_type = %v", env.Data["f_type"])
	}
}
