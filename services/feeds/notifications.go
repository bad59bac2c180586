package feeds

import (
	// Go Internal Packages
	"context"
	"slices"

	// Local Packages
	models "bankfeed/models"
)

// NotificationAPI is the REST surface the notification feed writes through.
type NotificationAPI interface {
	SetNotificationRead(ctx context.Context, id string, read bool) error
	MarkAllNotificationsRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
}

type NotificationFeed struct {
	*Feed[models.Notification]
	api NotificationAPI
}

// NewNotificationFeed returns a feed holding at most limit notifications, unbounded for 0.
func NewNotificationFeed(api NotificationAPI, limit int, opts ...Option) *NotificationFeed {
	return &NotificationFeed{
		Feed: NewFeed[models.Notification]("notifications", limit, opts...),
		api:  api,
	}
}

func (f *NotificationFeed) UnreadCount() int {
	return models.UnreadCount(f.Snapshot())
}

// SetRead flags one notification locally, then on the backend. If the backend refuses, the
// notification goes back to its previous value. An unknown id does nothing.
func (f *NotificationFeed) SetRead(ctx context.Context, id string, read bool) error {
	prev := f.setRead(func(n models.Notification) bool { return n.ID == id }, read)
	if len(prev) == 0 {
		return nil
	}
	if err := f.api.SetNotificationRead(ctx, id, read); err != nil {
		f.restore(prev)
		return err
	}
	return nil
}

func (f *NotificationFeed) MarkRead(ctx context.Context, id string) error {
	return f.SetRead(ctx, id, true)
}

// MarkAllRead flags every notification read. Calling it again is harmless.
func (f *NotificationFeed) MarkAllRead(ctx context.Context) error {
	prev := f.setRead(func(n models.Notification) bool { return !n.IsRead }, true)
	if err := f.api.MarkAllNotificationsRead(ctx); err != nil {
		f.restore(prev)
		return err
	}
	return nil
}

// Remove deletes a notification locally, then on the backend, putting it back where it was on
// failure. An unknown id does nothing.
func (f *NotificationFeed) Remove(ctx context.Context, id string) error {
	var (
		removed models.Notification
		at      = -1
	)
	f.mutate(func(items []models.Notification) ([]models.Notification, bool) {
		at = indexOf(items, id)
		if at < 0 {
			return items, false
		}
		removed = items[at]
		return slices.Delete(slices.Clone(items), at, at+1), true
	})
	if at < 0 {
		return nil
	}

	if err := f.api.DeleteNotification(ctx, id); err != nil {
		f.mutate(func(items []models.Notification) ([]models.Notification, bool) {
			if indexOf(items, id) >= 0 {
				return items, false
			}
			pos := min(at, len(items))
			return f.bound(slices.Insert(slices.Clone(items), pos, removed)), true
		})
		return err
	}
	return nil
}

// setRead applies read to every notification matching pick and returns their previous values.
func (f *NotificationFeed) setRead(pick func(models.Notification) bool, read bool) map[string]models.Notification {
	prev := make(map[string]models.Notification)
	f.mutate(func(items []models.Notification) ([]models.Notification, bool) {
		var next []models.Notification
		for i, n := range items {
			if !pick(n) {
				continue
			}
			if next == nil {
				next = slices.Clone(items)
			}
			prev[n.ID] = n
			next[i].IsRead = read
		}
		if next == nil {
			return items, false
		}
		return next, true
	})
	return prev
}

// restore puts back the previous values of the touched notifications only, so records pushed
// in the meantime survive a rollback. A record replaced by a push since the optimistic write
// keeps the pushed value.
func (f *NotificationFeed) restore(prev map[string]models.Notification) {
	if len(prev) == 0 {
		return
	}
	f.mutate(func(items []models.Notification) ([]models.Notification, bool) {
		next := slices.Clone(items)
		changed := false
		for i, n := range next {
			old, ok := prev[n.ID]
			if !ok {
				continue
			}
			written := old
			written.IsRead = n.IsRead
			if n.IsRead == old.IsRead || !sameNotification(n, written) {
				continue
			}
			next[i].IsRead = old.IsRead
			changed = true
		}
		return next, changed
	})
}

func sameNotification(a, b models.Notification) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Message == b.Message &&
		a.Category == b.Category &&
		a.IsRead == b.IsRead &&
		a.CreatedAt.Equal(b.CreatedAt.Time) &&
		a.ActionURL == b.ActionURL
}
