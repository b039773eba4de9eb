package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	if (User{}).TableName() != "users" {
		t.Fatalf("User.TableName() = %q; want %q", (User{}).TableName(), "users")
	}
	if (Content{}).TableName() != "contents" {
		t.Fatalf("Content.TableName() = %q; want %q", (Content{}).TableName(), "contents")
	}
}

func TestMigrations_AndRoundTrip(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&User{}, &Content{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&User{}, &Content{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	now := time.Now().UTC()

	u := &User{ID: 6056915535, Language: "en", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("insert user: %v", err)
	}
	var gotUser User
	if err := db.First(&gotUser, "id = ?", int64(6056915535)).Error; err != nil {
		t.Fatalf("readback user: %v", err)
	}
	if gotUser.Language != "en" {
		t.Fatalf("unexpected user row: %+v", gotUser)
	}

	// Duplicate PK must be rejected (idempotence lives in the repo's upsert).
	if err := db.Create(&User{ID: 6056915535}).Error; err == nil {
		t.Fatalf("expected PK violation on duplicate user id")
	}

	c := &Content{
		Key:     "season1",
		Kind:    KindSeries,
		Caption: "<b>Season 1</b>",
		Parts:   Parts{"s1e1", "s1e2"},
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("insert content: %v", err)
	}
	var gotContent Content
	if err := db.First(&gotContent, "key = ?", "season1").Error; err != nil {
		t.Fatalf("readback content: %v", err)
	}
	if !gotContent.IsSeries() {
		t.Fatalf("expected series, got kind %q", gotContent.Kind)
	}
	if len(gotContent.Parts) != 2 || gotContent.Parts[0] != "s1e1" || gotContent.Parts[1] != "s1e2" {
		t.Fatalf("parts did not round-trip: %v", gotContent.Parts)
	}

	single := &Content{Key: "movie42", Kind: KindVideo, FileID: "BAAC-file-id"}
	if err := db.Create(single).Error; err != nil {
		t.Fatalf("insert single: %v", err)
	}
	var gotSingle Content
	if err := db.First(&gotSingle, "key = ?", "movie42").Error; err != nil {
		t.Fatalf("readback single: %v", err)
	}
	if gotSingle.IsSeries() || gotSingle.FileID != "BAAC-file-id" || len(gotSingle.Parts) != 0 {
		t.Fatalf("unexpected single row: %+v", gotSingle)
	}
}

func TestParts_ScanValue(t *testing.T) {
	v, err := Parts(nil).Value()
	if err != nil || v != "[]" {
		t.Fatalf("nil Parts.Value() = %v, %v; want \"[]\"", v, err)
	}

	var p Parts
	if err := p.Scan("[\"a\",\"b\"]"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if len(p) != 2 || p[0] != "a" || p[1] != "b" {
		t.Fatalf("scan string result: %v", p)
	}

	p = nil
	if err := p.Scan([]byte(`["x"]`)); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if len(p) != 1 || p[0] != "x" {
		t.Fatalf("scan bytes result: %v", p)
	}

	p = Parts{"stale"}
	if err := p.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if p != nil {
		t.Fatalf("scan nil should reset, got %v", p)
	}

	if err := p.Scan(42); err == nil {
		t.Fatalf("expected error scanning unsupported type")
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := map[string]string{
		"en":    "en",
		"en-US": "en",
		"de":    "de",
		"pt-BR": "pt",
		"":      "en",
		"??":    "en",
	}
	for in, want := range cases {
		if got := NormalizeLanguage(in); got != want {
			t.Fatalf("NormalizeLanguage(%q) = %q; want %q", in, got, want)
		}
	}
}
