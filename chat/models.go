package chat

import "time"

// Exchange is one stored question/answer pair. CallID is set when the
// conversation was about a specific call.
type Exchange struct {
	ID        string
	UserID    string
	CallID    *string
	Message   string
	Response  string
	CreatedAt time.Time
}
