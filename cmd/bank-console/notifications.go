package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"time"

	// Local Packages
	models "bankfeed/models"
	feeds "bankfeed/services/feeds"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
)

func registerNotifications(cli *kingpin.Application, cmds commands) {
	notifications := cli.Command("notifications", "Notification center.")

	list := notifications.Command("list", "List notifications, newest first.").Default()
	unreadOnly := list.Flag("unread", "Only unread notifications").Bool()
	cmds[list.FullCommand()] = func(ctx context.Context, a *app) error {
		feed, err := a.loadNotifications(ctx)
		if err != nil {
			return err
		}
		items := feed.Snapshot()
		if *unreadOnly {
			unread := items[:0]
			for _, n := range items {
				if !n.IsRead {
					unread = append(unread, n)
				}
			}
			items = unread
		}
		if err := a.print(items, notificationHeaders, notificationRows(items, time.Now())); err != nil {
			return err
		}
		if !a.jsonOut {
			fmt.Fprintf(a.out, "\n%d unread\n", feed.UnreadCount())
		}
		return nil
	}

	read := notifications.Command("read", "Mark a notification read.")
	readID := read.Arg("id", "Notification id").Required().String()
	cmds[read.FullCommand()] = func(ctx context.Context, a *app) error {
		return a.notificationOp(ctx, *readID, func(f *feeds.NotificationFeed) error {
			return f.SetRead(ctx, *readID, true)
		})
	}

	unread := notifications.Command("unread", "Mark a notification unread.")
	unreadID := unread.Arg("id", "Notification id").Required().String()
	cmds[unread.FullCommand()] = func(ctx context.Context, a *app) error {
		return a.notificationOp(ctx, *unreadID, func(f *feeds.NotificationFeed) error {
			return f.SetRead(ctx, *unreadID, false)
		})
	}

	del := notifications.Command("delete", "Delete a notification.")
	delID := del.Arg("id", "Notification id").Required().String()
	cmds[del.FullCommand()] = func(ctx context.Context, a *app) error {
		return a.notificationOp(ctx, *delID, func(f *feeds.NotificationFeed) error {
			return f.Remove(ctx, *delID)
		})
	}

	readAll := notifications.Command("read-all", "Mark every notification read.")
	cmds[readAll.FullCommand()] = func(ctx context.Context, a *app) error {
		feed, err := a.loadNotifications(ctx)
		if err != nil {
			return err
		}
		if err := feed.MarkAllRead(ctx); err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, "All notifications marked read")
		return err
	}
}

func (a *app) loadNotifications(ctx context.Context) (*feeds.NotificationFeed, error) {
	feed := feeds.NewNotificationFeed(a.api, a.conf.Feeds.NotificationLimit, feeds.WithMetrics(a.metrics))
	if err := feed.Load(ctx, a.api.ListNotifications); err != nil {
		return nil, err
	}
	return feed, nil
}

// notificationOp runs op against a freshly loaded feed. An unknown id is reported, not sent.
func (a *app) notificationOp(ctx context.Context, id string, op func(*feeds.NotificationFeed) error) error {
	feed, err := a.loadNotifications(ctx)
	if err != nil {
		return err
	}
	if _, ok := feed.Get(id); !ok {
		_, err = fmt.Fprintf(a.out, "No notification %s, nothing to do\n", id)
		return err
	}
	if err := op(feed); err != nil {
		return err
	}
	n, ok := feed.Get(id)
	switch {
	case !ok:
		_, err = fmt.Fprintf(a.out, "Deleted %s\n", id)
	default:
		_, err = fmt.Fprintf(a.out, "%s is now %s\n", id, readLabel(n))
	}
	return err
}

func readLabel(n models.Notification) string {
	if n.IsRead {
		return "read"
	}
	return "unread"
}
