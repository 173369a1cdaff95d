package field

const (
	SignPlus  = "+"
	SignMinus = "-"
)

// UtcOffset is a signed "HH:MM" offset such as "-05:30".
//
// Touched stays false until SetSign or SetTime is called, and Emit keeps the
// stored value until then. A stored "" (unset) and "+00:00" (explicitly zero)
// must both survive a form round trip the user never edited.
type UtcOffset struct {
	Sign    string
	Time    string
	Touched bool
}

func DecodeUtcOffset(s string) UtcOffset {
	if s == "" {
		return UtcOffset{Sign: SignPlus}
	}
	return UtcOffset{Sign: s[:1], Time: s[1:]}
}

func (u UtcOffset) Encode() string {
	if u.Time == "" {
		return ""
	}
	return u.Sign + u.Time
}

func (u *UtcOffset) SetSign(sign string) {
	u.Touched = true
	u.Sign = sign
}

func (u *UtcOffset) SetTime(t string) {
	u.Touched = true
	u.Time = t
}

// Emit returns the value to write back to the form state.
func (u UtcOffset) Emit(stored string) string {
	if !u.Touched {
		return stored
	}
	return u.Encode()
}
