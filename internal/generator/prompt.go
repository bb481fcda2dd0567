package generator

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/deusflow/scorenews/internal/history"
	"github.com/deusflow/scorenews/internal/match"
)

const maxHeadlineRunes = 240

// Brand is the page identity the instruction is written for.
type Brand struct {
	PageName     string
	CallToAction string
	Hashtag      string
}

// DefaultBrand returns the page identity used when none is configured.
func DefaultBrand() Brand {
	return Brand{
		PageName: "Global Score News",
		Hashtag:  "#GlobalScoreNews",
	}
}

// Request is the input for one post.
type Request struct {
	PostType  history.PostType
	Matches   []match.Match
	Headlines []string
	Now       time.Time
}

// SystemInstruction returns the fixed editorial instruction.
func SystemInstruction(b Brand) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a senior social media editor for the Facebook page %q. ", b.PageName)
	sb.WriteString("You write short, professional football (soccer) posts: live updates, results, previews and multi-match recaps. ")
	sb.WriteString("Use ONLY facts present in match_data and never invent scorers, minutes, odds or statistics.\n\n")
	sb.WriteString("Style:\n")
	sb.WriteString("- Open with a one-line hook carrying one or two relevant emojis.\n")
	sb.WriteString("- 45 to 110 words in total; recaps may use one short line per match.\n")
	sb.WriteString("- Name both teams and give the score, minute or kickoff time when present.\n")
	sb.WriteString("- Use 3 to 6 emojis overall and keep the tone confident and neutral, never clickbait.\n")
	sb.WriteString("- Previews never claim certainty and end with: \"No guarantees. Bet responsibly (18+).\"\n")
	sb.WriteString("- Headlines, when given, are context only; mention them only if they clearly concern these teams.\n")
	sb.WriteString("- Skip missing fields silently.\n")
	if b.CallToAction != "" {
		fmt.Fprintf(&sb, "- Finish with this call to action: %q\n", b.CallToAction)
	}
	fmt.Fprintf(&sb, "- Add 5 to 10 hashtags, always including %s and the competition when known.\n\n", b.Hashtag)
	sb.WriteString("Reply with JSON only, no prose and no markdown:\n")
	sb.WriteString(`{"post_type": "live|result|preview|recap", "title": "short optional title", "post_text": "final text ready to publish", "hashtags": ["#Tag"], "safety_notes": "caveats you applied"}`)
	return sb.String()
}

func userPrompt(postType history.PostType, data string) string {
	return fmt.Sprintf("Write a %s post.\n\nmatch_data:\n%s", describe(postType), data)
}

func describe(t history.PostType) string {
	switch t {
	case history.PostLive:
		return "live update"
	case history.PostResult:
		return "full-time result"
	case history.PostPreview:
		return "match preview"
	case history.PostRecap:
		return "multi-match results recap"
	default:
		return "football"
	}
}

type matchView struct {
	HomeTeam    string       `json:"home_team"`
	AwayTeam    string       `json:"away_team"`
	Competition string       `json:"competition,omitempty"`
	Round       string       `json:"round,omitempty"`
	Status      match.State  `json:"status"`
	Score       *match.Score `json:"score,omitempty"`
	Minute      string       `json:"minute,omitempty"`
	Kickoff     string       `json:"kickoff_utc,omitempty"`
	Venue       string       `json:"venue,omitempty"`
}

type competitionView struct {
	Competition string      `json:"competition"`
	Matches     []matchView `json:"matches"`
}

type matchData struct {
	PostType     history.PostType  `json:"post_type"`
	Date         string            `json:"date,omitempty"`
	Match        *matchView        `json:"match,omitempty"`
	Competitions []competitionView `json:"competitions,omitempty"`
	Headlines    []string          `json:"headlines,omitempty"`
}

// BuildMatchData serializes the request as the match_data JSON block.
// Recaps list matches under their competition, in request order.
func BuildMatchData(req Request) (string, error) {
	if len(req.Matches) == 0 {
		return "", fmt.Errorf("no matches in request")
	}

	data := matchData{PostType: req.PostType}
	if !req.Now.IsZero() {
		data.Date = req.Now.Format(history.DateLayout)
	}
	if req.PostType == history.PostRecap {
		data.Competitions = groupViews(req.Matches)
	} else {
		v := view(req.Matches[0])
		data.Match = &v
	}
	for _, h := range req.Headlines {
		if h = sanitize(h); h != "" {
			data.Headlines = append(data.Headlines, h)
		}
	}

	out, err := jsoniter.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func view(m match.Match) matchView {
	v := matchView{
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		Competition: m.Competition,
		Round:       m.Round,
		Status:      m.State,
		Minute:      m.Minute,
		Venue:       m.Venue,
	}
	if m.State != match.StateScheduled && m.State != match.StateCancelled {
		score := m.Score
		v.Score = &score
	}
	if !m.Kickoff.IsZero() {
		v.Kickoff = m.Kickoff.UTC().Format("2006-01-02 15:04")
	}
	return v
}

func groupViews(matches []match.Match) []competitionView {
	var out []competitionView
	for _, m := range matches {
		v := view(m)
		v.Competition = ""
		if n := len(out); n > 0 && out[n-1].Competition == m.Competition {
			out[n-1].Matches = append(out[n-1].Matches, v)
			continue
		}
		out = append(out, competitionView{Competition: m.Competition, Matches: []matchView{v}})
	}
	return out
}

// sanitize collapses whitespace and cuts s on a rune boundary.
func sanitize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxHeadlineRunes {
		return s
	}
	return string([]rune(s)[:maxHeadlineRunes]) + "..."
}
