package domain

import "time"

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Wholesale bool   `json:"wholesale"`
}

// Session is everything one shopper carries between requests.
type Session struct {
	ID           string        `json:"id"`
	User         *User         `json:"user,omitempty"`
	Wholesale    bool          `json:"wholesale"`
	Points       Points        `json:"points"`
	Cart         Cart          `json:"cart"`
	Checkout     CheckoutState `json:"checkout"`
	LastVisitDay string        `json:"lastVisitDay,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Checkout:  CheckoutState{Stage: StageIdle},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Session) UserID() string {
	if s.User == nil {
		return ""
	}
	return s.User.ID
}
