package controller

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/popquest/popquest/internal/popquest/types"
)

const (
	checkinReward          = 10
	checkinRewardVIP       = 20
	taskReward             = 15
	guessWinReward         = 30
	guessConsolationReward = 5
)

const dayKeyLayout = "2006-01-02"
const txTimeLayout = "2006/01/02 15:04:05"

type stateStore interface {
	Load(ctx context.Context) *types.State
	Save(ctx context.Context, state *types.State) error
	Close() error
}

// Controller owns the application state. Every operation takes the lock,
// validates its preconditions, mutates a copy of the state, persists it and
// only then swaps the copy in; a failed precondition or a failed persist
// leaves the visible state untouched.
type Controller struct {
	mu    sync.Mutex
	store stateStore
	state *types.State

	// injected for deterministic tests
	now  func() time.Time
	roll func(n int) int
}

func NewController(ctx context.Context, s stateStore) *Controller {
	return &Controller{
		store: s,
		state: s.Load(ctx),
		now:   time.Now,
		roll:  rand.IntN,
	}
}

// GuessResult reports one round of the guessing game.
type GuessResult struct {
	Guess  int     `json:"guess"`
	Answer int     `json:"answer"`
	Win    bool    `json:"win"`
	Reward float64 `json:"reward"`
}

// Login activates a session for name, creating the user on first login with
// the supplied role. For an existing user the stored role always wins.
func (c *Controller) Login(ctx context.Context, name string, role types.Role) (*types.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.Users[name]; !ok && !role.IsValid() {
		return nil, ErrInvalidRole
	}
	next := cloneState(c.state)
	user, ok := next.Users[name]
	if !ok {
		user = &types.User{Role: role, Tx: []types.Transaction{}}
		next.Users[name] = user
	}
	next.CurrentUser = name
	if err := c.save(ctx, next); err != nil {
		return nil, err
	}
	c.state = next
	return cloneUser(user), nil
}

// Logout clears the session pointer. The user record stays.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneState(c.state)
	next.CurrentUser = ""
	if err := c.save(ctx, next); err != nil {
		return err
	}
	c.state = next
	return nil
}

// CurrentUser returns the active user's name and record.
func (c *Controller) CurrentUser() (string, *types.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, user, err := activeUser(c.state)
	if err != nil {
		return "", nil, err
	}
	return name, cloneUser(user), nil
}

// CheckIn grants the daily reward at most once per calendar day.
func (c *Controller) CheckIn(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, user, err := activeUser(c.state)
	if err != nil {
		return 0, err
	}
	today := c.now().Format(dayKeyLayout)
	if user.LastCheckin == today {
		return 0, ErrAlreadyCheckedIn
	}
	delta := float64(checkinReward)
	if user.Role == types.RoleVIP {
		delta = checkinRewardVIP
	}
	next := cloneState(c.state)
	next.Users[name].LastCheckin = today
	c.record(next, name, types.CategoryCheckin, "daily check-in reward", delta)
	if err := c.save(ctx, next); err != nil {
		return 0, err
	}
	c.state = next
	return delta, nil
}

// CompleteTask grants the flat task reward. Repeatable without limit.
func (c *Controller) CompleteTask(ctx context.Context) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, _, err := activeUser(c.state)
	if err != nil {
		return 0, err
	}
	next := cloneState(c.state)
	c.record(next, name, types.CategoryTask, "completed daily task", taskReward)
	if err := c.save(ctx, next); err != nil {
		return 0, err
	}
	c.state = next
	return taskReward, nil
}

// PlayGuess plays one round of the 1-5 guessing game. An out-of-range guess
// is rejected before anything is drawn, so it does not consume a turn.
func (c *Controller) PlayGuess(ctx context.Context, guess int) (*GuessResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, _, err := activeUser(c.state)
	if err != nil {
		return nil, err
	}
	if guess < 1 || guess > 5 {
		return nil, ErrGuessOutOfRange
	}
	answer := c.roll(5) + 1
	win := guess == answer
	delta := float64(guessConsolationReward)
	if win {
		delta = guessWinReward
	}
	next := cloneState(c.state)
	detail := fmt.Sprintf("guessed %d, answer %d", guess, answer)
	c.record(next, name, types.CategoryGame, detail, delta)
	if err := c.save(ctx, next); err != nil {
		return nil, err
	}
	c.state = next
	return &GuessResult{Guess: guess, Answer: answer, Win: win, Reward: delta}, nil
}

// Redeem exchanges a gift code for its reward. Lookup is case-insensitive.
// The eligibility check runs before the already-redeemed check.
func (c *Controller) Redeem(ctx context.Context, code string) (float64, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return 0, ErrEmptyCode
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	name, user, err := activeUser(c.state)
	if err != nil {
		return 0, err
	}
	gift, ok := c.state.GiftCodes[code]
	if !ok {
		return 0, ErrCodeNotFound
	}
	if gift.Role == types.CodeRoleVIP && user.Role != types.RoleVIP {
		return 0, ErrCodeVIPOnly
	}
	if gift.WasUsedBy(name) {
		return 0, ErrCodeAlreadyRedeemed
	}
	next := cloneState(c.state)
	nextGift := next.GiftCodes[code]
	nextGift.UsedBy = append(nextGift.UsedBy, name)
	c.record(next, name, types.CategoryRedeem, "redeemed "+code, nextGift.Points)
	if err := c.save(ctx, next); err != nil {
		return 0, err
	}
	c.state = next
	return nextGift.Points, nil
}

// AdminAdjust applies an unclamped delta to the target user's balance and
// attributes the adjustment to the acting admin.
func (c *Controller) AdminAdjust(ctx context.Context, target string, delta float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, err := activeAdmin(c.state)
	if err != nil {
		return err
	}
	if math.IsNaN(delta) {
		return ErrInvalidDelta
	}
	if _, ok := c.state.Users[target]; !ok {
		return ErrUserNotFound
	}
	next := cloneState(c.state)
	c.record(next, target, types.CategoryAdminAdjust, "adjusted by "+name, delta)
	if err := c.save(ctx, next); err != nil {
		return err
	}
	c.state = next
	return nil
}

// AdminCreateCode mints a new gift code with an empty redemption set.
func (c *Controller) AdminCreateCode(ctx context.Context, code string, points float64, role types.CodeRole) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := activeAdmin(c.state); err != nil {
		return err
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return ErrEmptyCode
	}
	if math.IsNaN(points) || points <= 0 {
		return ErrInvalidPoints
	}
	if !role.IsValid() {
		return ErrInvalidCodeRole
	}
	if _, ok := c.state.GiftCodes[code]; ok {
		return ErrCodeAlreadyExist
	}
	next := cloneState(c.state)
	next.GiftCodes[code] = &types.GiftCode{Points: points, Role: role, UsedBy: []string{}}
	if err := c.save(ctx, next); err != nil {
		return err
	}
	c.state = next
	return nil
}

// AdminListUsers lists every known user, for the admin adjustment target
// picker.
func (c *Controller) AdminListUsers() ([]types.UserInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := activeAdmin(c.state); err != nil {
		return nil, err
	}
	users := make([]types.UserInfo, 0, len(c.state.Users))
	for name, user := range c.state.Users {
		users = append(users, types.UserInfo{Name: name, Role: user.Role})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (c *Controller) Close() error {
	return c.store.Close()
}

// record is the only path that ever changes a balance: apply the delta,
// then prepend the ledger entry carrying the running balance.
func (c *Controller) record(st *types.State, name string, category types.Category, detail string, delta float64) {
	user := st.Users[name]
	user.Points += delta
	tx := types.Transaction{
		Time:    c.now().Format(txTimeLayout),
		Type:    category,
		Detail:  detail,
		Delta:   delta,
		Balance: user.Points,
	}
	user.Tx = append([]types.Transaction{tx}, user.Tx...)
}

func activeUser(st *types.State) (string, *types.User, error) {
	name := st.CurrentUser
	if name == "" {
		return "", nil, ErrNoSession
	}
	user, ok := st.Users[name]
	if !ok {
		return "", nil, ErrNoSession
	}
	return name, user, nil
}

func activeAdmin(st *types.State) (string, error) {
	name, user, err := activeUser(st)
	if err != nil {
		return "", err
	}
	if user.Role != types.RoleAdmin {
		return "", ErrNotAdmin
	}
	return name, nil
}

func (c *Controller) save(ctx context.Context, st *types.State) error {
	if err := c.store.Save(ctx, st); err != nil {
		return errors.Wrap(err, "store.Save failed: ")
	}
	return nil
}

func cloneState(s *types.State) *types.State {
	out := &types.State{
		CurrentUser: s.CurrentUser,
		Users:       make(map[string]*types.User, len(s.Users)),
		GiftCodes:   make(map[string]*types.GiftCode, len(s.GiftCodes)),
	}
	for name, user := range s.Users {
		out.Users[name] = cloneUser(user)
	}
	for code, gift := range s.GiftCodes {
		g := *gift
		g.UsedBy = append([]string{}, gift.UsedBy...)
		out.GiftCodes[code] = &g
	}
	return out
}

func cloneUser(u *types.User) *types.User {
	out := *u
	out.Tx = append([]types.Transaction{}, u.Tx...)
	return &out
}
