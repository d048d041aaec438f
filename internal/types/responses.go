package types

// UserSummary is the owner/creator snippet embedded in resource payloads.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// AuthorSummary is the comment-author snippet, which also carries the avatar.
type AuthorSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

type CommentResponse struct {
	ID        uint          `json:"id"`
	Content   string        `json:"content"`
	CreatedAt string        `json:"created_at"`
	Author    AuthorSummary `json:"author"`
}

type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Coordinates is an optional in-world map position attached to an event.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
