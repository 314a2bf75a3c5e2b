package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cppla/sigil/progression"
)

// Error carries the HTTP status and business code a failure maps to.
// Codes follow the 4xxyy/5xxyy scheme used by the API responses.
type Error struct {
	Status int
	Code   int
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("service error (%d)", e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation and lookup failures. All of them leave state unchanged.
var (
	ErrAmountNotPositive  = errors.New("amount must be positive")
	ErrInsufficientBonus  = errors.New("insufficient bonus xp")
	ErrAmountTooLow       = errors.New("amount too low")
	ErrInsufficientShards = errors.New("insufficient shards")
	ErrSelfPurchase       = errors.New("cannot buy your own listing")
	ErrListingUnavailable = errors.New("listing is no longer available")
	ErrNotTitle           = errors.New("achievement is not a tradable title")
	ErrTitleNotHeld       = errors.New("title is not unlocked")
	ErrAlreadyOwned       = errors.New("title already owned")
	ErrTitleListed        = errors.New("title is listed for sale; cancel the listing first")
	ErrNotClaimable       = progression.ErrNotClaimable

	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrInvalidThresholds   = errors.New("intensity thresholds must be 4 ascending positive numbers")
	ErrInvalidDate         = errors.New("date must be formatted as YYYY-MM-DD")
	ErrNegativeValue       = errors.New("value must not be negative")
	ErrNotMember           = errors.New("not an alliance member")
	ErrNotCreator          = errors.New("only the alliance creator can do this")
	ErrAlreadyMember       = errors.New("user is already a member")
	ErrAllianceClosed      = errors.New("alliance has ended")
	ErrDuplicateInvitation = errors.New("invitation already pending")
	ErrInvitationHandled   = errors.New("invitation already answered")
	ErrSelfChallenge       = errors.New("an alliance cannot challenge itself")
	ErrChallengeExists     = errors.New("a challenge already exists between these alliances")
	ErrChallengeBusy       = errors.New("alliance is already in a challenge")
	ErrChallengeState      = errors.New("challenge is not in the required state")
	ErrDuplicateFriendship = errors.New("friend request already exists")
	ErrSelfFriendship      = errors.New("cannot befriend yourself")
	ErrLevelTooLow         = errors.New("level too low")
	ErrPactExpired         = errors.New("pact date has passed")

	ErrUserNotFound        = errors.New("user not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrRecordNotFound      = errors.New("record not found")
	ErrAllianceNotFound    = errors.New("alliance not found")
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrListingNotFound     = errors.New("listing not found")
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrSkillNotFound       = errors.New("skill not found")
	ErrPactNotFound        = errors.New("pact not found")
	ErrFriendshipNotFound  = errors.New("friend request not found")
)

var errorTable = []struct {
	err    error
	status int
	code   int
}{
	{ErrAmountNotPositive, http.StatusBadRequest, 40010},
	{ErrAmountTooLow, http.StatusBadRequest, 40011},
	{ErrInsufficientBonus, http.StatusBadRequest, 40012},
	{ErrInsufficientShards, http.StatusBadRequest, 40013},
	{ErrSelfPurchase, http.StatusBadRequest, 40014},
	{ErrNotTitle, http.StatusBadRequest, 40015},
	{ErrTitleNotHeld, http.StatusBadRequest, 40016},
	{ErrNotClaimable, http.StatusBadRequest, 40017},
	{ErrInvalidThresholds, http.StatusBadRequest, 40020},
	{ErrInvalidDate, http.StatusBadRequest, 40021},
	{ErrNegativeValue, http.StatusBadRequest, 40022},
	{ErrSelfChallenge, http.StatusBadRequest, 40030},
	{ErrSelfFriendship, http.StatusBadRequest, 40031},
	{ErrLevelTooLow, http.StatusBadRequest, 40032},
	{ErrPactExpired, http.StatusBadRequest, 40033},
	{ErrAllianceClosed, http.StatusBadRequest, 40034},
	{ErrInvalidCredentials, http.StatusUnauthorized, 40106},
	{ErrNotMember, http.StatusForbidden, 40301},
	{ErrNotCreator, http.StatusForbidden, 40302},
	{ErrUserNotFound, http.StatusNotFound, 40410},
	{ErrTaskNotFound, http.StatusNotFound, 40411},
	{ErrRecordNotFound, http.StatusNotFound, 40412},
	{ErrAllianceNotFound, http.StatusNotFound, 40413},
	{ErrInvitationNotFound, http.StatusNotFound, 40414},
	{ErrChallengeNotFound, http.StatusNotFound, 40415},
	{ErrListingNotFound, http.StatusNotFound, 40416},
	{ErrAchievementNotFound, http.StatusNotFound, 40417},
	{ErrSkillNotFound, http.StatusNotFound, 40418},
	{ErrPactNotFound, http.StatusNotFound, 40419},
	{ErrFriendshipNotFound, http.StatusNotFound, 40420},
	{ErrUsernameTaken, http.StatusConflict, 40901},
	{ErrAlreadyMember, http.StatusConflict, 40902},
	{ErrDuplicateInvitation, http.StatusConflict, 40903},
	{ErrInvitationHandled, http.StatusConflict, 40904},
	{ErrChallengeExists, http.StatusConflict, 40905},
	{ErrChallengeBusy, http.StatusConflict, 40906},
	{ErrChallengeState, http.StatusConflict, 40907},
	{ErrListingUnavailable, http.StatusConflict, 40908},
	{ErrAlreadyOwned, http.StatusConflict, 40909},
	{ErrDuplicateFriendship, http.StatusConflict, 40910},
	{ErrTitleListed, http.StatusConflict, 40911},
}

// invalid builds an ad-hoc validation error.
func invalid(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: 40000, Err: fmt.Errorf(format, args...)}
}

// AsError maps any error returned by the service to an *Error. Unknown
// errors become a generic 500.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	for _, row := range errorTable {
		if errors.Is(err, row.err) {
			return &Error{Status: row.status, Code: row.code, Err: row.err}
		}
	}
	return &Error{Status: http.StatusInternalServerError, Code: 50000, Err: err}
}
