package model

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

type TaskSource string

const (
	SourceManual  TaskSource = "manual"
	SourceOutlook TaskSource = "outlook"
)

type User struct {
	ID      string   `json:"_id"`
	Email   string   `json:"email"`
	Auth0ID string   `json:"auth0Id,omitempty"`
	Avatar  string   `json:"avatar,omitempty"`
	Name    string   `json:"name"`
	Role    Role     `json:"role"`
	Company string   `json:"company,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Tags    []string `json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type Task struct {
	ID          string       `json:"_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`

	// The backend stores an array of user ids.
	AssignedTo []string `json:"assignedTo,omitempty"`
	CreatedBy  string   `json:"createdBy"`

	Attachments []TaskAttachment `json:"attachments,omitempty"`
	Comments    []Comment        `json:"comments,omitempty"`

	// Outlook provenance (set when the task was derived from an email).
	Source           TaskSource `json:"source,omitempty"`
	SourceEmailID    string     `json:"sourceEmailId,omitempty"`
	SourceThreadID   string     `json:"sourceThreadId,omitempty"`
	SourceWebLink    string     `json:"sourceWebLink,omitempty"`
	SourceFromName   string     `json:"sourceFromName,omitempty"`
	SourceFromAddr   string     `json:"sourceFromAddress,omitempty"`
	SourceReceivedAt *time.Time `json:"sourceReceivedAt,omitempty"`
	SourceSubject    string     `json:"sourceSubject,omitempty"`
	SourceSnippet    string     `json:"sourceSnippet,omitempty"`
}

// TaskPatch carries only the fields a PATCH /tasks/:id should change.
// Nil fields are omitted from the wire payload.
type TaskPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	AssignedTo  *[]string     `json:"assignedTo,omitempty"`
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && p.AssignedTo == nil
}

type TaskAttachment struct {
	ID         string    `json:"_id"`
	FileName   string    `json:"fileName"`
	FileURL    string    `json:"fileUrl,omitempty"`
	UploadedAt time.Time `json:"uploadedAt,omitempty"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
}

type Comment struct {
	ID        string      `json:"_id"`
	Content   string      `json:"content"`
	User      CommentUser `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

type CommentUser struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

type Folder struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	Parent     string    `json:"parent,omitempty"` // empty = root
	ClientID   string    `json:"clientId"`
	IsDefault  bool      `json:"isDefault,omitempty"`
	IsInternal bool      `json:"isInternal,omitempty"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt,omitempty"`
}

type File struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Type      string    `json:"type,omitempty"`
	Key       string    `json:"key,omitempty"`
	FolderID  string    `json:"folderId,omitempty"`
	ReadBy    []string  `json:"readBy,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// ReadBy grows monotonically per user: once marked read, a file never
// transitions back to unread.
func (f File) IsReadBy(userID string) bool {
	for _, id := range f.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

type Message struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Type      string    `json:"type,omitempty"`
	Read      bool      `json:"read,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type Tag struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type LatestEmail struct {
	MessageID  string `json:"messageId"`
	Subject    string `json:"subject"`
	From       string `json:"from"`
	ReceivedAt string `json:"receivedAt,omitempty"`
	// Legacy alias some backend versions still emit.
	Received string `json:"received,omitempty"`
	BodyText string `json:"bodyText,omitempty"`
	WebLink  string `json:"webLink,omitempty"`
}

func (e LatestEmail) ReceivedTime() (time.Time, bool) {
	iso := e.ReceivedAt
	if iso == "" {
		iso = e.Received
	}
	if iso == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type Subscription struct {
	ID                 string `json:"_id"`
	UserID             string `json:"userId"`
	SubscriptionID     string `json:"subscriptionId"`
	ClientState        string `json:"clientState,omitempty"`
	ExpirationDateTime string `json:"expirationDateTime"`
	Resource           string `json:"resource,omitempty"`
}

// Live reports whether the subscription still has more than the given
// remaining lifetime (the web client resubscribes when under two minutes).
func (s Subscription) Live(now time.Time, margin time.Duration) bool {
	exp, err := time.Parse(time.RFC3339, s.ExpirationDateTime)
	if err != nil {
		return false
	}
	return exp.Sub(now) > margin
}
