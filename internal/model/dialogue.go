package model

import "time"

// Role tags who produced a turn.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Turn is a single message exchanged within a session.
// Timestamp is seconds since the Unix epoch.
type Turn struct {
	Role      Role    `json:"role" bson:"role"`
	Content   string  `json:"content" bson:"content"`
	Timestamp float64 `json:"timestamp" bson:"timestamp"`
}

// SessionDocument is the archived form of a conversation.
// Timestamp records when the document was written.
type SessionDocument struct {
	SessionID string  `json:"session_id" bson:"session_id"`
	Dialogue  []Turn  `json:"dialogue" bson:"dialogue"`
	Timestamp float64 `json:"timestamp" bson:"timestamp"`
}

// UserTurn builds the opening turn of a session document.
func UserTurn(content string, at float64) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: at}
}

// BotTurn builds a reply turn.
func BotTurn(content string, at float64) Turn {
	return Turn{Role: RoleBot, Content: content, Timestamp: at}
}

// Epoch converts t to fractional seconds since the Unix epoch.
func Epoch(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// EpochOf interprets a host-supplied creation time. It accepts integer and
// float epoch seconds and time.Time; anything else reports false.
func EpochOf(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	case time.Time:
		if t.IsZero() {
			return 0, false
		}
		return Epoch(t), true
	default:
		return 0, false
	}
}
