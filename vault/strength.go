package vault

import (
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// Strength summarizes a password strength estimate. Score runs 0 (guessed
// immediately) to 4 (strong).
type Strength struct {
	Score            int
	Entropy          float64
	CrackTimeDisplay string
}

// EvaluateStrength estimates how resistant a password is to guessing.
// userInputs (site name, username, etc.) are penalized as likely-known
// context. This is advisory UI material and never blocks a write.
func EvaluateStrength(password string, userInputs ...string) Strength {
	m := zxcvbn.PasswordStrength(password, userInputs)
	return Strength{
		Score:            m.Score,
		Entropy:          m.Entropy,
		CrackTimeDisplay: m.CrackTimeDisplay,
	}
}
