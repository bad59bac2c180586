package models

// Notification categories. Anything else received from the backend is kept as is.
const (
	CategoryInfo    = "info"
	CategorySuccess = "success"
	CategoryWarning = "warning"
	CategoryError   = "error"
)

type Notification struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Message   string  `json:"message"`
	Category  string  `json:"type"`
	IsRead    bool    `json:"isRead"`
	CreatedAt Instant `json:"timestamp"`
	ActionURL string  `json:"actionUrl,omitempty"`
}

// Key returns the identity used by feeds.
func (n Notification) Key() string {
	return n.ID
}

// KnownCategory reports whether c is one of the declared notification categories.
func KnownCategory(c string) bool {
	switch c {
	case CategoryInfo, CategorySuccess, CategoryWarning, CategoryError:
		return true
	}
	return false
}

// UnreadCount counts notifications not yet read.
func UnreadCount(ns []Notification) int {
	count := 0
	for _, n := range ns {
		if !n.IsRead {
			count++
		}
	}
	return count
}
