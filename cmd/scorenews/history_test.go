package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/deusflow/scorenews/internal/cadence"
	"github.com/deusflow/scorenews/internal/history"
)

func TestPrintHistory(t *testing.T) {
	now := time.Date(2024, 5, 18, 20, 0, 0, 0, time.UTC)
	rec := history.Empty()
	rec = history.RecordPost(rec, []string{"a"}, history.PostResult, now.Add(-3*time.Hour), time.UTC)
	rec = history.RecordPost(rec, []string{"b"}, history.PostLive, now.Add(-time.Hour), time.UTC)
	decider := cadence.New(cadence.DefaultConfig(), nil)

	var buf bytes.Buffer
	printHistory(&buf, rec, decider, now, 1)
	out := buf.String()

	assert.Contains(t, out, "Today (2024-05-18): 2 of ")
	assert.Contains(t, out, "(1h0m0s ago)")
	assert.Contains(t, out, "2024-05-18  2")
	assert.Contains(t, out, "Recent posts (1 of 2)")
	assert.Contains(t, out, "live")
	assert.NotContains(t, out, " a\n")
}

func TestPrintEmptyHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, history.Empty(), cadence.New(cadence.DefaultConfig(), nil), time.Now(), 10)
	assert.Contains(t, buf.String(), "Last post: never")
	assert.NotContains(t, buf.String(), "Recent posts")
}
