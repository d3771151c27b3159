package controller

import "github.com/go-faster/errors"

var ErrEmptyName = errors.New("user name is empty")
var ErrInvalidRole = errors.New("unknown role")
var ErrNoSession = errors.New("no active session")
var ErrAlreadyCheckedIn = errors.New("already checked in today")
var ErrGuessOutOfRange = errors.New("guess must be an integer between 1 and 5")
var ErrEmptyCode = errors.New("gift code is empty")
var ErrCodeNotFound = errors.New("gift code does not exist")
var ErrCodeVIPOnly = errors.New("gift code is restricted to vip users")
var ErrCodeAlreadyRedeemed = errors.New("gift code already redeemed by this user")
var ErrCodeAlreadyExist = errors.New("gift code already exists")
var ErrNotAdmin = errors.New("admin role required")
var ErrUserNotFound = errors.New("user does not exist")
var ErrInvalidDelta = errors.New("delta is not a number")
var ErrInvalidPoints = errors.New("points must be a positive number")
var ErrInvalidCodeRole = errors.New("unknown code eligibility")
