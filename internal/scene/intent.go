package scene

import (
	"fmt"
	"strings"

	"github.com/sweeney/blowout/internal/logic"
)

// Intent is a discrete request from the user.
type Intent string

const (
	IntentGrant Intent = "grant" // allow microphone access
	IntentDeny  Intent = "deny"  // refuse microphone access
	IntentReset Intent = "reset" // relight the candles
	IntentClose Intent = "close" // close the celebration overlay
)

// Intents lists every valid intent.
var Intents = []Intent{IntentGrant, IntentDeny, IntentReset, IntentClose}

// ParseIntent converts a case-insensitive name into an Intent.
func ParseIntent(s string) (Intent, error) {
	in := Intent(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := in.Trigger(); !ok {
		return "", fmt.Errorf("unknown intent %q", s)
	}
	return in, nil
}

// Trigger returns the lifecycle trigger for the intent.
func (in Intent) Trigger() (logic.Trigger, bool) {
	switch in {
	case IntentGrant:
		return logic.TriggerGrant, true
	case IntentDeny:
		return logic.TriggerDeny, true
	case IntentReset:
		return logic.TriggerReset, true
	case IntentClose:
		return logic.TriggerCloseOverlay, true
	}
	return "", false
}
