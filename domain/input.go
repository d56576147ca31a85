package domain

// ProjectInput is a project submission as entered by a visitor.
type ProjectInput struct {
	Title       string
	Description string
	URL         string
	Category    string
	Tags        []string
}

// CommentInput is a comment as entered by a visitor. Nickname is optional; when set it
// becomes the commenter's nickname before the comment is stored.
type CommentInput struct {
	Text     string
	Nickname string
}
