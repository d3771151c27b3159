package store

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/popquest/popquest/internal/popquest/types"
	"go.uber.org/zap"
)

// Slot holds the whole state as a single opaque blob under a fixed key.
type Slot interface {
	Get(ctx context.Context) ([]byte, error)
	Set(ctx context.Context, blob []byte) error
	Close() error
}

// Store serializes the application state into its slot. Load never fails:
// an empty or unreadable slot degrades to the seeded default state.
type Store struct {
	slot   Slot
	logger *zap.Logger
}

func New(slot Slot, logger *zap.Logger) *Store {
	return &Store{slot: slot, logger: logger.Named("store")}
}

// DefaultState is the state of a browser that has never run the app: no
// users, no session, and the two seeded gift codes.
func DefaultState() *types.State {
	return &types.State{
		Users: map[string]*types.User{},
		GiftCodes: map[string]*types.GiftCode{
			"POP-NEWYEAR": {Points: 50, Role: types.CodeRoleAll, UsedBy: []string{}},
			"POP-VIPDAY":  {Points: 80, Role: types.CodeRoleVIP, UsedBy: []string{}},
		},
	}
}

// partialState mirrors State but keeps track of which top-level keys were
// actually present in the blob, so absent keys can be backfilled from the
// default.
type partialState struct {
	CurrentUser *string                    `json:"currentUser"`
	Users       map[string]*types.User     `json:"users"`
	GiftCodes   map[string]*types.GiftCode `json:"giftCodes"`
}

// Load reads the persisted blob and merges it over the default state.
// Malformed or missing data is not an error: the caller always gets a
// usable state back.
func (s *Store) Load(ctx context.Context) *types.State {
	state := DefaultState()
	raw, err := s.slot.Get(ctx)
	if errors.Is(err, ErrSlotEmpty) {
		return state
	}
	if err != nil {
		s.logger.Warn("slot.Get failed, falling back to default state", zap.Error(err))
		return state
	}
	parsed := &partialState{}
	if err := json.Unmarshal(raw, parsed); err != nil {
		s.logger.Warn("state blob is malformed, falling back to default state", zap.Error(err))
		return state
	}
	if parsed.CurrentUser != nil {
		state.CurrentUser = *parsed.CurrentUser
	}
	// Null map entries count as absent, like in the original blob consumer:
	// a nil user or gift code must never reach the rules engine.
	if parsed.Users != nil {
		for name, user := range parsed.Users {
			if user == nil {
				delete(parsed.Users, name)
			}
		}
		state.Users = parsed.Users
	}
	if parsed.GiftCodes != nil {
		for code, gift := range parsed.GiftCodes {
			if gift == nil {
				delete(parsed.GiftCodes, code)
			}
		}
		state.GiftCodes = parsed.GiftCodes
	}
	return state
}

// Save writes the full state back to the slot.
func (s *Store) Save(ctx context.Context, state *types.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "json.Marshal failed: ")
	}
	if err := s.slot.Set(ctx, raw); err != nil {
		return errors.Wrap(err, "slot.Set failed: ")
	}
	return nil
}

func (s *Store) Close() error {
	return s.slot.Close()
}
