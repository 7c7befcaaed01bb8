package domain

// Button is one tappable reply option on an interactive message. The ID
// comes back verbatim as the content of the next inbound message when the
// user selects it.
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListRow is one selectable item in a list message section.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups list rows under a heading.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}
