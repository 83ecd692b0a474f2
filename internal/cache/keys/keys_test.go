package keys

import (
	"math"
	"strings"
	"testing"

	"github.com/StudentTraineeCenter/Borealis-satellite-chatbot/internal/core/model"
)

func base() model.QueryParams {
	return model.QueryParams{
		SatID:          25544,
		Latitude:       50.0755,
		Longitude:      14.4378,
		Altitude:       200,
		PredictionDays: 1,
		MinVisibility:  120,
	}
}

func TestKey_StableForEqualParams(t *testing.T) {
	a, b := base(), base()
	if Key(a) != Key(b) {
		t.Fatalf("equal params produced different keys: %q vs %q", Key(a), Key(b))
	}
	if !strings.HasPrefix(Key(a), "passes:25544:50.0755:14.4378:200:1:120:h=") {
		t.Fatalf("unexpected key layout: %q", Key(a))
	}
}

func TestKey_EveryFieldParticipates(t *testing.T) {
	ref := Key(base())
	mutations := []func(*model.QueryParams){
		func(p *model.QueryParams) { p.SatID = 25545 },
		func(p *model.QueryParams) { p.Latitude = math.Nextafter(p.Latitude, 90) },
		func(p *model.QueryParams) { p.Longitude = 14.43781 },
		func(p *model.QueryParams) { p.Altitude = 200.5 },
		func(p *model.QueryParams) { p.PredictionDays = 2 },
		func(p *model.QueryParams) { p.MinVisibility = 121 },
	}
	for i, mut := range mutations {
		p := base()
		mut(&p)
		if Key(p) == ref {
			t.Fatalf("mutation %d did not change the key", i)
		}
	}
}

func TestKey_NegativeZeroEqualsZero(t *testing.T) {
	a := base()
	a.Longitude = 0
	b := base()
	b.Longitude = math.Copysign(0, -1)
	if Key(a) != Key(b) {
		t.Fatalf("-0 and 0 should share a key: %q vs %q", Key(a), Key(b))
	}
}

func TestObjectKey(t *testing.T) {
	if got := ObjectKey(25544); got != "obj:25544" {
		t.Fatalf("ObjectKey=%q", got)
	}
}
