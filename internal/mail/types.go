package mail

// Account describes a Mail.app account.
type Account struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Mailbox describes a mailbox within an account.
type Mailbox struct {
	Name        string `json:"name"`
	UnreadCount int    `json:"unreadCount"`
}

// MessageSummary is the listing view of a message, as returned by search.
type MessageSummary struct {
	ID           string `json:"id"`
	Subject      string `json:"subject"`
	Sender       string `json:"sender"`
	DateReceived string `json:"dateReceived"`
	Read         bool   `json:"read"`
}

// Message is the full view of a message, including flag state and optionally
// the body content.
type Message struct {
	MessageSummary
	Flagged bool   `json:"flagged"`
	Content string `json:"content,omitempty"`
}

// Attachment describes a mail attachment without its content.
type Attachment struct {
	Name       string `json:"name"`
	MIMEType   string `json:"mimeType"`
	Size       int64  `json:"size"`
	Downloaded bool   `json:"downloaded"`
}

// Draft is an outgoing message. The same shape is used for sending and for
// saving drafts.
type Draft struct {
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
	To      []string `json:"to"`
	Cc      []string `json:"cc,omitempty"`
	Bcc     []string `json:"bcc,omitempty"`
}

// SearchQuery holds the optional filters for SearchMessages. A nil ReadStatus
// means "don't filter by read state". Limit <= 0 means unlimited.
type SearchQuery struct {
	SenderContains  string
	SubjectContains string
	ReadStatus      *bool
	Limit           int
}

// FlagColor is a Mail.app message flag color.
type FlagColor string

// Flag colors supported by Mail.app, plus "none" to clear the flag.
const (
	FlagNone   FlagColor = "none"
	FlagRed    FlagColor = "red"
	FlagOrange FlagColor = "orange"
	FlagYellow FlagColor = "yellow"
	FlagGreen  FlagColor = "green"
	FlagBlue   FlagColor = "blue"
	FlagPurple FlagColor = "purple"
	FlagGray   FlagColor = "gray"
)

// flagIndexes maps flag colors to Mail.app's flag index values. Index -1
// clears the flag.
var flagIndexes = map[FlagColor]int{
	FlagNone:   -1,
	FlagRed:    0,
	FlagOrange: 1,
	FlagYellow: 2,
	FlagGreen:  3,
	FlagBlue:   4,
	FlagPurple: 5,
	FlagGray:   6,
}

// ValidFlagColor reports whether color names a supported flag color.
func ValidFlagColor(color string) bool {
	_, ok := flagIndexes[FlagColor(color)]
	return ok
}

// FlagColors returns the supported color names, for error messages and tool
// descriptions.
func FlagColors() []string {
	return []string{
		string(FlagNone), string(FlagRed), string(FlagOrange),
		string(FlagYellow), string(FlagGreen), string(FlagBlue),
		string(FlagPurple), string(FlagGray),
	}
}
