// Package domain defines the persistence models for users and stored content.
// These types are mapped with GORM and form the core data layer of the bot.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/language"
)

// ContentKind discriminates how a stored record is delivered.
type ContentKind string

// Supported content kinds.
const (
	KindVideo    ContentKind = "video"
	KindDocument ContentKind = "document"
	KindSeries   ContentKind = "series"
)

// User represents a Telegram user known to the bot. A row is created on
// first contact and never duplicated: inserts go through an idempotent
// upsert keyed by the Telegram id.
//
// Fields:
//   - ID: the Telegram user id (stable, assigned by the transport).
//   - Language: normalized BCP-47 language tag, defaults to "en".
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type User struct {
	ID        int64     `json:"id"         gorm:"primaryKey"`
	Language  string    `json:"language"   gorm:"type:varchar(16);not null;default:'en'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Parts is an ordered list of member content keys belonging to a series.
// It is stored as a JSON array in a TEXT column.
type Parts []string

// Value implements driver.Valuer, serializing the list as JSON.
func (p Parts) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner, accepting JSON stored as TEXT or BLOB.
func (p *Parts) Scan(v any) error {
	switch src := v.(type) {
	case nil:
		*p = nil
		return nil
	case string:
		if src == "" {
			*p = nil
			return nil
		}
		return json.Unmarshal([]byte(src), (*[]string)(p))
	case []byte:
		if len(src) == 0 {
			*p = nil
			return nil
		}
		return json.Unmarshal(src, (*[]string)(p))
	default:
		return fmt.Errorf("parts: cannot scan %T", v)
	}
}

// Content represents one deliverable unit keyed by an opaque content key.
// A record is either a single item (video or document, carrying the
// transport-native file handle) or a series: an ordered list of other
// content keys delivered as a paced sequence.
//
// Series members are expected to resolve to non-series records; the
// delivery engine guards against cycles at expansion time rather than
// enforcing the shape here.
type Content struct {
	Key       string      `json:"key"        gorm:"type:TEXT;primaryKey"`
	Kind      ContentKind `json:"kind"       gorm:"type:varchar(16);not null;check:kind IN ('video','document','series')"`
	FileID    string      `json:"file_id"    gorm:"type:TEXT"` // transport file handle; empty for series
	Caption   string      `json:"caption"    gorm:"type:TEXT"` // optional, HTML formatting
	Parts     Parts       `json:"parts"      gorm:"type:TEXT"` // member keys; series only
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Content.
func (Content) TableName() string { return "contents" }

// IsSeries reports whether the record expands into member deliveries.
func (c *Content) IsSeries() bool { return c.Kind == KindSeries }

// NormalizeLanguage maps a transport-reported language code to the stored
// base tag. Unparseable or unrecognized codes fall back to "en".
func NormalizeLanguage(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return "en"
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "en"
	}
	return base.String()
}
