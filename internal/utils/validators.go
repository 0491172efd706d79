package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MaxParticipantIDLength bounds ids taken from recruitment query parameters.
const MaxParticipantIDLength = 128

// IsValidParticipantID rejects ids that are empty, too long or contain
// control characters.
func IsValidParticipantID(id string) bool {
	if id == "" || len(id) > MaxParticipantIDLength {
		return false
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ParseRating parses a slider value and checks it lies within min..max.
func ParseRating(raw string, min, max int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("rating %q is not a number", raw)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("rating %d outside %d..%d", v, min, max)
	}
	return v, nil
}

// ParseReactionTime parses a client reaction time in milliseconds. Missing or
// malformed values yield -1 so the server measurement is used instead.
func ParseReactionTime(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return -1
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return -1
	}
	return int64(f)
}

// ParseControls parses the comma-separated list of slider indexes the client
// saw touched. Every index must lie within 0..count-1.
func ParseControls(raw string, count int) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	controls := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("control %q is not a number", p)
		}
		if v < 0 || v >= count {
			return nil, fmt.Errorf("control %d outside 0..%d", v, count-1)
		}
		controls = append(controls, v)
	}
	return controls, nil
}
