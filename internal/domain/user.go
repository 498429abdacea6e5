package domain

// User represents per-user reminder settings.
// Presence and reminder timestamps live in the presence registry, not here.
type User struct {
	ID      string // Discord user snowflake
	Enabled bool
	TZ      string   // IANA location name
	Bedtime *Bedtime // nil until the user sets one
}

// HasBedtime reports whether the user configured a bedtime.
func (u *User) HasBedtime() bool {
	return u != nil && u.Bedtime != nil
}
