package pipeline

// Chat types as seen by the pipeline. The transport collapses Telegram's
// group and supergroup into ChatTypeGroup.
const (
	ChatTypePrivate = "private"
	ChatTypeGroup   = "group"
)

// Sender identifies a chat participant.
type Sender struct {
	ID          int64  // numeric user ID
	DisplayName string // first name shown in chat
	Handle      string // username without the leading "@", may be empty
}

// Event is one incoming transport event, already mapped out of the wire
// format. UpdateID is the transport's monotonically increasing event
// identifier; it drives the sequence guard.
type Event struct {
	UpdateID   int64
	MessageID  int64
	ChatID     int64
	ChatType   string // ChatTypePrivate or ChatTypeGroup
	Sender     Sender
	Text       string
	ReplyTo    *Sender // sender of the replied-to message, nil when not a reply
	ReplyToBot bool    // the replied-to message was sent by the bot itself
}
