package types

// Role is a user's privilege tier. It is chosen at first login and never
// changes afterwards.
type Role string

const (
	RoleRegular Role = "regular"
	RoleVIP     Role = "vip"
	RoleAdmin   Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleRegular, RoleVIP, RoleAdmin:
		return true
	}
	return false
}

// CodeRole restricts who may redeem a gift code.
type CodeRole string

const (
	CodeRoleAll CodeRole = "all"
	CodeRoleVIP CodeRole = "vip"
)

func (r CodeRole) IsValid() bool {
	return r == CodeRoleAll || r == CodeRoleVIP
}

// Category tags a ledger entry with the action that produced it.
type Category string

const (
	CategoryCheckin     Category = "checkin"
	CategoryTask        Category = "task"
	CategoryGame        Category = "game"
	CategoryRedeem      Category = "redeem"
	CategoryAdminAdjust Category = "admin-adjust"
)

// Transaction is one immutable ledger entry. Delta and Balance are float64
// because admin adjustments accept fractional values.
type Transaction struct {
	Time    string   `json:"time"`
	Type    Category `json:"type"`
	Detail  string   `json:"detail"`
	Delta   float64  `json:"delta"`
	Balance float64  `json:"balance"`
}

type User struct {
	Role        Role          `json:"role"`
	Points      float64       `json:"points"`
	LastCheckin string        `json:"lastCheckin,omitempty"`
	Tx          []Transaction `json:"tx"`
}

type GiftCode struct {
	Points float64  `json:"points"`
	Role   CodeRole `json:"role"`
	UsedBy []string `json:"usedBy"`
}

// WasUsedBy reports whether name already redeemed the code.
func (g *GiftCode) WasUsedBy(name string) bool {
	for _, n := range g.UsedBy {
		if n == name {
			return true
		}
	}
	return false
}

// State is the whole persisted blob. Users and GiftCodes are keyed by
// display name and uppercase code respectively.
type State struct {
	CurrentUser string               `json:"currentUser,omitempty"`
	Users       map[string]*User     `json:"users"`
	GiftCodes   map[string]*GiftCode `json:"giftCodes"`
}

// UserInfo is the admin-facing listing entry.
type UserInfo struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type LoginRequest struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

type GuessRequest struct {
	Guess *float64 `json:"guess"`
}

type RedeemRequest struct {
	Code string `json:"code"`
}

type AdjustRequest struct {
	Target string   `json:"target"`
	Delta  *float64 `json:"delta"`
}

type CreateCodeRequest struct {
	Code   string   `json:"code"`
	Points *float64 `json:"points"`
	Role   CodeRole `json:"role"`
}
