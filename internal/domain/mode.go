package domain

import "fmt"

// Mode selects which scheduler pipeline a checker run evaluates.
type Mode string

const (
	ModeDeposit    Mode = "deposit"
	ModeWithdrawal Mode = "withdrawal"
)

// ParseMode converts a scheduler type string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDeposit, ModeWithdrawal:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown scheduler type %q", ErrInvalidArgs, s)
	}
}

func (m Mode) String() string {
	return string(m)
}
