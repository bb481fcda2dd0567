// Package history keeps the persisted record of past posts. It is the only
// source of truth for pacing and duplicate avoidance between runs.
package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// DateLayout is the calendar-day key format used by DailyCount.
const DateLayout = "2006-01-02"

// PostType distinguishes content kinds for pacing purposes.
type PostType string

const (
	PostLive    PostType = "live"
	PostResult  PostType = "result"
	PostPreview PostType = "preview"
	PostRecap   PostType = "recap"
)

// Entry is one posted fixture. A recap publishes several entries that share
// the same PostedAt.
type Entry struct {
	Key      string    `json:"key"`
	PostedAt time.Time `json:"posted_at"`
	Type     PostType  `json:"type"`
}

// Record is the persisted history document.
type Record struct {
	Posts      []Entry                `json:"posts"`
	DailyCount map[string]int         `json:"daily_count"`
	LastPostAt *time.Time             `json:"last_post_at,omitempty"`
	LastByType map[PostType]time.Time `json:"last_by_type,omitempty"`
}

// Policy bounds the size of a Record.
type Policy struct {
	MaxPosts      int // entries kept in Posts
	RetentionDays int // days kept in DailyCount
	DedupWindow   int // most recent entries consulted by WasAlreadyPosted; 0 = all
}

// DefaultPolicy matches the limits the job ships with.
func DefaultPolicy() Policy {
	return Policy{
		MaxPosts:      200,
		RetentionDays: 7,
		DedupWindow:   50,
	}
}

// Store loads and saves a Record.
type Store interface {
	// Load never fails: missing or unreadable state yields an empty Record.
	Load(ctx context.Context) Record
	// Save prunes the record and writes it all-or-nothing.
	Save(ctx context.Context, rec Record) error
}

// Empty returns a zero-value record with initialised maps.
func Empty() Record {
	return Record{
		DailyCount: make(map[string]int),
		LastByType: make(map[PostType]time.Time),
	}
}

// Day returns the DailyCount key for t in loc.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// TodayCount returns the number of publish events recorded for now's day.
func (r Record) TodayCount(now time.Time, loc *time.Location) int {
	return r.DailyCount[Day(now, loc)]
}

// RecordPost appends one entry per key, counts one publish event for today
// and moves LastPostAt. The input record is not modified.
func RecordPost(rec Record, keys []string, postType PostType, now time.Time, loc *time.Location) Record {
	out := clone(rec)
	for _, k := range keys {
		out.Posts = append(out.Posts, Entry{Key: k, PostedAt: now, Type: postType})
	}
	out.DailyCount[Day(now, loc)]++
	ts := now
	out.LastPostAt = &ts
	out.LastByType[postType] = now
	return out
}

// WasAlreadyPosted reports whether key appears among the last window entries.
func WasAlreadyPosted(rec Record, key string, window int) bool {
	if key == "" {
		return false
	}
	start := 0
	if window > 0 && len(rec.Posts) > window {
		start = len(rec.Posts) - window
	}
	for _, e := range rec.Posts[start:] {
		if e.Key == key {
			return true
		}
	}
	return false
}

// PostedKeys returns the set of keys WasAlreadyPosted would match.
func PostedKeys(rec Record, window int) map[string]bool {
	start := 0
	if window > 0 && len(rec.Posts) > window {
		start = len(rec.Posts) - window
	}
	keys := make(map[string]bool, len(rec.Posts)-start)
	for _, e := range rec.Posts[start:] {
		keys[e.Key] = true
	}
	return keys
}

// Prune enforces the post cap and drops DailyCount days older than the
// retention window relative to now.
func Prune(rec Record, now time.Time, loc *time.Location, p Policy) Record {
	out := clone(rec)
	if p.MaxPosts > 0 && len(out.Posts) > p.MaxPosts {
		out.Posts = append([]Entry(nil), out.Posts[len(out.Posts)-p.MaxPosts:]...)
	}
	if p.RetentionDays > 0 {
		cutoff := Day(now.AddDate(0, 0, -p.RetentionDays), loc)
		for day := range out.DailyCount {
			// DateLayout sorts lexically in chronological order.
			if day < cutoff {
				delete(out.DailyCount, day)
			}
		}
	}
	return out
}

// Normalize makes a decoded record safe to use: nil maps are allocated and
// posts are ordered by time.
func Normalize(rec Record) Record {
	out := clone(rec)
	sort.SliceStable(out.Posts, func(i, j int) bool {
		return out.Posts[i].PostedAt.Before(out.Posts[j].PostedAt)
	})
	for day, n := range out.DailyCount {
		if n < 0 {
			out.DailyCount[day] = 0
		}
	}
	return out
}

// IdentityKey derives the dedup key of a fixture on a calendar day.
func IdentityKey(day, home, away string) string {
	h := sha256.New()
	h.Write([]byte(day + "|" + normalizeName(home) + "|" + normalizeName(away)))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func clone(rec Record) Record {
	out := Record{
		Posts:      append([]Entry(nil), rec.Posts...),
		DailyCount: make(map[string]int, len(rec.DailyCount)),
		LastByType: make(map[PostType]time.Time, len(rec.LastByType)),
	}
	for k, v := range rec.DailyCount {
		out.DailyCount[k] = v
	}
	for k, v := range rec.LastByType {
		out.LastByType[k] = v
	}
	if rec.LastPostAt != nil {
		ts := *rec.LastPostAt
		out.LastPostAt = &ts
	}
	return out
}
