// Package rewards implements the contribute and redeem transitions of a
// user's points record. Functions take a user by value and return the next
// state; callers persist it.
package rewards

import (
	"errors"
	"fmt"
	"time"

	"aqi-map-backend/internal/models"
)

const (
	// BasePoints is awarded for every accepted contribution
	BasePoints = 10
	// StreakBonus is awarded per day of the current streak
	StreakBonus = 2
)

// ErrAlreadyContributed is returned when the user already contributed on the same day
var ErrAlreadyContributed = errors.New("you've already contributed today")

// InsufficientPointsError is returned when a voucher costs more than the user holds
type InsufficientPointsError struct {
	Voucher string
	Needed  int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("not enough points to redeem this voucher, you need %d more points", e.Needed)
}

// Contribution is the outcome of an accepted contribution
type Contribution struct {
	Message string `json:"message"`
	Points  int    `json:"points"`
	Streak  int    `json:"streak"`
	Earned  int    `json:"earned"`
}

// Redemption is the outcome of a redeemed voucher
type Redemption struct {
	Message         string `json:"message"`
	Voucher         string `json:"voucher"`
	RemainingPoints int    `json:"remaining_points"`
}

// Day truncates t to the start of its calendar day in loc
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// sameDay compares calendar dates, ignoring the location each value carries.
// Dates read back from a DATE column come back as UTC midnight.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Contribute records a contribution made on today (a value returned by Day).
// Contributing on consecutive days extends the streak; skipping a day resets it.
func Contribute(u models.User, today time.Time) (models.User, Contribution, error) {
	if u.LastContribution != nil && sameDay(*u.LastContribution, today) {
		return u, Contribution{}, ErrAlreadyContributed
	}

	yesterday := today.AddDate(0, 0, -1)
	if u.LastContribution != nil && sameDay(*u.LastContribution, yesterday) {
		u.Streak++
	} else {
		u.Streak = 1
	}

	day := today
	u.LastContribution = &day

	earned := BasePoints + u.Streak*StreakBonus
	u.Points += earned

	return u, Contribution{
		Message: fmt.Sprintf("You earned %d points!", earned),
		Points:  u.Points,
		Streak:  u.Streak,
		Earned:  earned,
	}, nil
}

// Redeem spends points on voucher and adds it to the user's vouchers
func Redeem(u models.User, voucher models.Voucher) (models.User, Redemption, error) {
	if u.Points < voucher.PointsRequired {
		return u, Redemption{}, &InsufficientPointsError{
			Voucher: voucher.Name,
			Needed:  voucher.PointsRequired - u.Points,
		}
	}

	u.Points -= voucher.PointsRequired

	vouchers := make([]string, len(u.Vouchers), len(u.Vouchers)+1)
	copy(vouchers, u.Vouchers)
	u.Vouchers = append(vouchers, voucher.Name)

	return u, Redemption{
		Message:         fmt.Sprintf("Successfully redeemed %s!", voucher.Name),
		Voucher:         voucher.Name,
		RemainingPoints: u.Points,
	}, nil
}
