package headlines

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/scorenews/internal/match"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Football</title>
  <item>
    <title>Arsenal close in on the title</title>
    <description><![CDATA[<p>Arteta's side <b>won again</b> on Saturday.</p>]]></description>
    <link>https://example.com/1</link>
    <pubDate>Sat, 18 May 2024 12:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Chelsea confirm new signing</title>
    <description>Deal done.</description>
    <link>https://example.com/2</link>
    <pubDate>Sat, 18 May 2024 14:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Transfer round-up</title>
    <description>Bayern and Inter both active.</description>
    <link>https://example.com/3</link>
    <pubDate>Fri, 17 May 2024 09:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Old Arsenal story</title>
    <description>From last month.</description>
    <link>https://example.com/4</link>
    <pubDate>Wed, 10 Apr 2024 09:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSkipsBrokenFeedsAndOldItems(t *testing.T) {
	srv := feedServer(t)
	s := NewSource([]string{srv.URL + "/missing", srv.URL + "/rss"}, time.Second, 7*24*time.Hour, nil)
	s.now = func() time.Time { return time.Date(2024, 5, 18, 15, 0, 0, 0, time.UTC) }

	items := s.Fetch(context.Background())
	require.Len(t, items, 3)
	assert.Equal(t, "Arteta's side won again on Saturday.", items[0].Summary)
}

func TestForMatches(t *testing.T) {
	srv := feedServer(t)
	s := NewSource([]string{srv.URL + "/rss"}, time.Second, 0, nil)

	got := s.ForMatches(context.Background(), []match.Match{{HomeTeam: "Arsenal", AwayTeam: "Chelsea"}}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "Chelsea confirm new signing: Deal done.", got[0], "newest first")
	assert.Contains(t, got[1], "Arsenal close in on the title")
}

func TestForMatchesWithoutFeeds(t *testing.T) {
	var s *Source
	assert.Nil(t, s.ForMatches(context.Background(), []match.Match{{HomeTeam: "A", AwayTeam: "B"}}, 3))
	assert.Nil(t, NewSource(nil, 0, 0, nil).ForMatches(context.Background(), nil, 3))
}

func TestRelevant(t *testing.T) {
	items := []Headline{
		{Title: "Inter win derby", Published: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "INTER WIN DERBY", Published: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)},
		{Title: "Quiet day", Summary: "Milan rest players"},
		{Title: "Nothing relevant"},
	}

	got := Relevant(items, []string{"Inter", "Milan", "AC"}, 0)
	require.Len(t, got, 2)
	assert.Equal(t, "Inter win derby", got[0].Title)
	assert.Equal(t, "Quiet day", got[1].Title)

	assert.Nil(t, Relevant(items, []string{"", "AC"}, 3), "names below the minimum length are ignored")
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Hello world", PlainText("<div>Hello <i>world</i></div>"))
	assert.Equal(t, "plain text", PlainText("  plain \n text "))
	assert.Equal(t, "", PlainText(""))
}
