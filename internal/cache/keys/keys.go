// Package keys builds canonical cache keys from query parameters.
package keys

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
)

const (
	passesPrefix = "passes"
	objectPrefix = "obj"
	seqKey       = "passes:seq"
)

// Key returns the canonical key for p. Keys are equal exactly when all six
// fields are equal; there is no rounding of coordinates.
func Key(p model.QueryParams) string {
	canon := Canonical(p)
	return fmt.Sprintf("%s:%s:h=%016x", passesPrefix, canon, xxhash.Sum64String(canon))
}

// Canonical is the field-by-field text form used inside Key.
func Canonical(p model.QueryParams) string {
	var b strings.Builder
	b.Grow(96)
	b.WriteString(strconv.Itoa(p.SatID))
	for _, f := range []float64{p.Latitude, p.Longitude, p.Altitude, p.PredictionDays, p.MinVisibility} {
		b.WriteByte(':')
		b.WriteString(formatFloat(f))
	}
	return b.String()
}

func ObjectKey(id int) string {
	return objectPrefix + ":" + strconv.Itoa(id)
}

func SeqKey() string { return seqKey }

func formatFloat(f float64) string {
	if f == 0 {
		// -0 and +0 compare equal
		f = 0
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
