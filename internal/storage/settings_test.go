package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *SettingsDB {
	t.Helper()
	db, err := NewSettingsDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSettingsRoundTrip(t *testing.T) {
	db := testDB(t)

	if err := db.SetSetting("language", "en"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := db.SetSetting("language", "fr"); err != nil {
		t.Fatalf("SetSetting upsert failed: %v", err)
	}
	if err := db.SetSetting("voice_id", "abc"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}

	settings, err := db.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings["language"] != "fr" {
		t.Errorf("language = %q, want fr (upserted)", settings["language"])
	}
	if settings["voice_id"] != "abc" {
		t.Errorf("voice_id = %q, want abc", settings["voice_id"])
	}
}

func TestVoiceSamples(t *testing.T) {
	db := testDB(t)

	if err := db.SaveVoiceSample("id-1", "my voice", "/voices/id-1.wav"); err != nil {
		t.Fatalf("SaveVoiceSample failed: %v", err)
	}

	samples, err := db.ListVoiceSamples()
	if err != nil {
		t.Fatalf("ListVoiceSamples failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("got %d samples, want 1", len(samples))
	}
	if samples[0]["name"] != "my voice" {
		t.Errorf("sample name = %v", samples[0]["name"])
	}
}

func TestSessionHistory(t *testing.T) {
	db := testDB(t)

	if err := db.SaveSession("s-1", time.Now(), 12.5, 42, 2, false); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := db.SaveSession("s-2", time.Now(), 3.0, 5, 1, true); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	sessions, err := db.ListSessions(10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}

	var degradedSeen bool
	for _, s := range sessions {
		if s["id"] == "s-2" {
			if s["degraded"] != true {
				t.Errorf("s-2 degraded flag not preserved")
			}
			degradedSeen = true
		}
	}
	if !degradedSeen {
		t.Error("s-2 missing from listing")
	}
}

func TestListSessionsLimit(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		if err := db.SaveSession(id, time.Now().Add(time.Duration(i)*time.Second), 1, 1, 1, false); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}
	}
	sessions, err := db.ListSessions(3)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 3 {
		t.Errorf("got %d sessions, want 3", len(sessions))
	}
}
