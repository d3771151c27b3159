package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/popquest/popquest/internal/popquest/types"
	"go.uber.org/zap"
)

func newTestStore() (*Store, *MemorySlot) {
	slot := NewMemorySlot()
	return New(slot, zap.NewNop()), slot
}

func TestLoadEmptySlotReturnsDefault(t *testing.T) {
	s, _ := newTestStore()
	state := s.Load(context.Background())

	if len(state.Users) != 0 || state.CurrentUser != "" {
		t.Fatalf("default state should have no users and no session, got %+v", state)
	}
	newyear, ok := state.GiftCodes["POP-NEWYEAR"]
	if !ok || newyear.Points != 50 || newyear.Role != types.CodeRoleAll {
		t.Fatalf("POP-NEWYEAR seed = %+v", newyear)
	}
	vipday, ok := state.GiftCodes["POP-VIPDAY"]
	if !ok || vipday.Points != 80 || vipday.Role != types.CodeRoleVIP {
		t.Fatalf("POP-VIPDAY seed = %+v", vipday)
	}
}

func TestLoadMalformedBlobFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore()
	if err := slot.Set(ctx, []byte("{not json at all")); err != nil {
		t.Fatal(err)
	}

	state := s.Load(ctx)
	if len(state.GiftCodes) != 2 || len(state.Users) != 0 {
		t.Fatalf("malformed blob should yield the default state, got %+v", state)
	}
}

func TestLoadBackfillsMissingTopLevelKeys(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore()

	// a blob that only knows about users keeps the seeded gift codes
	blob := `{"currentUser":"alice","users":{"alice":{"role":"regular","points":12,"tx":[]}}}`
	if err := slot.Set(ctx, []byte(blob)); err != nil {
		t.Fatal(err)
	}

	state := s.Load(ctx)
	if state.CurrentUser != "alice" {
		t.Fatalf("currentUser = %q, want alice", state.CurrentUser)
	}
	if u := state.Users["alice"]; u == nil || u.Points != 12 {
		t.Fatalf("alice = %+v", state.Users["alice"])
	}
	if len(state.GiftCodes) != 2 {
		t.Fatalf("missing giftCodes key should be backfilled with seeds, got %v", state.GiftCodes)
	}
}

func TestLoadDropsNullEntries(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore()

	blob := `{"currentUser":"alice","users":{"alice":null,"bob":{"role":"vip","points":1,"tx":[]}},"giftCodes":{"POP-X":null}}`
	if err := slot.Set(ctx, []byte(blob)); err != nil {
		t.Fatal(err)
	}

	state := s.Load(ctx)
	if _, ok := state.Users["alice"]; ok {
		t.Fatal("null user entry should be dropped")
	}
	if u := state.Users["bob"]; u == nil || u.Role != types.RoleVIP {
		t.Fatalf("bob = %+v, want the parsed vip user", state.Users["bob"])
	}
	if _, ok := state.GiftCodes["POP-X"]; ok {
		t.Fatal("null gift code entry should be dropped")
	}
}

func TestLoadKeepsParsedKeysOverDefault(t *testing.T) {
	ctx := context.Background()
	s, slot := newTestStore()

	// a present-but-different giftCodes key fully replaces the seeds
	blob := `{"giftCodes":{"POP-CUSTOM":{"points":5,"role":"all","usedBy":[]}}}`
	if err := slot.Set(ctx, []byte(blob)); err != nil {
		t.Fatal(err)
	}

	state := s.Load(ctx)
	if len(state.GiftCodes) != 1 {
		t.Fatalf("giftCodes = %v, want only POP-CUSTOM", state.GiftCodes)
	}
	if _, ok := state.GiftCodes["POP-CUSTOM"]; !ok {
		t.Fatalf("giftCodes = %v, want POP-CUSTOM", state.GiftCodes)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore()

	state := DefaultState()
	state.CurrentUser = "bob"
	state.Users["bob"] = &types.User{
		Role:        types.RoleVIP,
		Points:      97.5,
		LastCheckin: "2025-01-15",
		Tx: []types.Transaction{
			{Time: "2025/01/15 09:30:00", Type: types.CategoryCheckin, Detail: "daily check-in reward", Delta: 20, Balance: 97.5},
		},
	}
	state.GiftCodes["POP-VIPDAY"].UsedBy = []string{"bob"}

	if err := s.Save(ctx, state); err != nil {
		t.Fatal(err)
	}
	got := s.Load(ctx)
	if !reflect.DeepEqual(got, state) {
		t.Fatalf("round-trip mismatch:\n got  %+v\n want %+v", got, state)
	}
}
