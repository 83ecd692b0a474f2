package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

// creates new client connected to miniredis for testing
func newMini(t *testing.T) *Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	t.Cleanup(cancel)

	rc, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc
}

func TestGet_ReturnsWrittenValueAndReportsMissing(t *testing.T) {
	rc := newMini(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rc.SetAndZAdd(ctx, "obj:7", []byte(`{"satid":7}`), "z", ScoredMember{Score: 1, Member: "a"}); err != nil {
		t.Fatalf("SetAndZAdd: %v", err)
	}

	got, ok, err := rc.Get(ctx, "obj:7")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(got) != `{"satid":7}` {
		t.Fatalf("Get=%q", got)
	}

	got, ok, err = rc.Get(ctx, "obj:8")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if ok || got != nil {
		t.Fatalf("missing key: ok=%v val=%q", ok, got)
	}
}

func TestSetAndZAdd_ZRangeOrdersByScoreThenMember(t *testing.T) {
	rc := newMini(t)
	ctx := context.Background()

	writes := []ScoredMember{
		{Score: 20, Member: "00000000000000000003|c"},
		{Score: 10, Member: "00000000000000000002|b"},
		{Score: 10, Member: "00000000000000000001|a"},
	}
	for _, m := range writes {
		if err := rc.SetAndZAdd(ctx, "obj:1", []byte("x"), "z", m); err != nil {
			t.Fatalf("SetAndZAdd: %v", err)
		}
	}

	got, err := rc.ZRangeAll(ctx, "z")
	if err != nil {
		t.Fatalf("ZRangeAll: %v", err)
	}
	want := []string{"00000000000000000001|a", "00000000000000000002|b", "00000000000000000003|c"}
	if len(got) != len(want) {
		t.Fatalf("len=%d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Member != want[i] {
			t.Fatalf("member[%d]=%q want %q", i, got[i].Member, want[i])
		}
	}

	n1, err := rc.Incr(ctx, "seq")
	if err != nil {
		t.Fatalf("Incr: %v", err)
	}
	n2, _ := rc.Incr(ctx, "seq")
	if n1 != 1 || n2 != 2 {
		t.Fatalf("incr sequence=%d,%d want 1,2", n1, n2)
	}
}

func TestContextDeadline_IsRespected(t *testing.T) {
	rc := newMini(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rc.SetAndZAdd(ctx, "k", []byte("v"), "z", ScoredMember{Score: 1, Member: "m"}); err == nil {
		t.Fatalf("expected error on SetAndZAdd with canceled context")
	}
	if _, _, err := rc.Get(ctx, "k"); err == nil {
		t.Fatalf("expected error on Get with canceled context")
	}
	if _, err := rc.ZRangeAll(ctx, "z"); err == nil {
		t.Fatalf("expected error on ZRangeAll with canceled context")
	}
}
