package timeutil

import (
	"time"
)

// SaoPaulo is the operations timezone. The yard runs on local wall-clock
// time and every queue timestamp is stored and compared in it.
var SaoPaulo *time.Location

func init() {
	var err error
	SaoPaulo, err = time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		// Fallback: fixed zone if tzdata is unavailable in the container
		SaoPaulo = time.FixedZone("BRT", -3*60*60) // UTC-3
	}
}

// Now returns the current time in America/Sao_Paulo.
func Now() time.Time {
	return time.Now().In(SaoPaulo)
}

// ToLocal converts any time to America/Sao_Paulo.
func ToLocal(t time.Time) time.Time {
	return t.In(SaoPaulo)
}

// ParseLocal parses a time string in America/Sao_Paulo.
func ParseLocal(layout, value string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, value, SaoPaulo)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
