package match

import "strings"

// statusTable collapses provider status tokens onto canonical states. Keys
// are upper-case with spaces and dashes folded to underscores.
var statusTable = map[string]State{
	// in play
	"1H":          StateLive,
	"2H":          StateLive,
	"ET":          StateLive,
	"BT":          StateLive,
	"P":           StateLive,
	"LIVE":        StateLive,
	"INPROGRESS":  StateLive,
	"IN_PROGRESS": StateLive,
	"INPLAY":      StateLive,
	"IN_PLAY":     StateLive,
	"FIRST_HALF":  StateLive,
	"SECOND_HALF": StateLive,
	"1ST_HALF":    StateLive,
	"2ND_HALF":    StateLive,
	"EXTRA_TIME":  StateLive,
	"PENALTIES":   StateLive,

	// half-time
	"HT":        StateHalfTime,
	"HALFTIME":  StateHalfTime,
	"HALF_TIME": StateHalfTime,
	"PAUSE":     StateHalfTime,
	"BREAK":     StateHalfTime,

	// finished
	"FT":               StateFinished,
	"FINISHED":         StateFinished,
	"ENDED":            StateFinished,
	"FINAL":            StateFinished,
	"FULL_TIME":        StateFinished,
	"FULLTIME":         StateFinished,
	"AET":              StateFinished,
	"AFTER_EXTRA_TIME": StateFinished,
	"PEN":              StateFinished,
	"AP":               StateFinished,
	"AFTER_PENALTIES":  StateFinished,
	"AWD":              StateFinished,
	"AWARDED":          StateFinished,
	"WO":               StateFinished,

	// called off
	"POSTPONED": StateCancelled,
	"PST":       StateCancelled,
	"CANCELLED": StateCancelled,
	"CANCELED":  StateCancelled,
	"CANC":      StateCancelled,
	"ABANDONED": StateCancelled,
	"ABD":       StateCancelled,
	"SUSPENDED": StateCancelled,
	"SUSP":      StateCancelled,
	"INT":       StateCancelled,

	// not started
	"NS":          StateScheduled,
	"SCHEDULED":   StateScheduled,
	"NOTSTARTED":  StateScheduled,
	"NOT_STARTED": StateScheduled,
	"TBD":         StateScheduled,
	"TIMED":       StateScheduled,
	"FIXTURE":     StateScheduled,
}

// NormalizeStatus maps a raw provider token to a State. Unknown and empty
// tokens are SCHEDULED.
func NormalizeStatus(raw string) State {
	token := strings.ToUpper(strings.TrimSpace(raw))
	token = strings.NewReplacer(" ", "_", "-", "_").Replace(token)
	if s, ok := statusTable[token]; ok {
		return s
	}
	return StateScheduled
}
