package main

import (
	// Go Internal Packages
	"context"
	"strconv"
	"time"

	// Local Packages
	errors "bankfeed/errors"
	models "bankfeed/models"
	utils "bankfeed/utils"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
)

func registerDeadLetters(cli *kingpin.Application, cmds commands) {
	dl := cli.Command("dead-letters", "Push payloads that could not be decoded.")
	limit := dl.Flag("limit", "Letters to show").Short('n').Default("20").Int64()
	cmds[dl.FullCommand()] = func(ctx context.Context, a *app) error {
		q, err := a.deadLetters(ctx)
		if err != nil {
			return err
		}
		if q == nil {
			return errors.E(errors.Invalid, "the dead-letter list is disabled, set redis.enabled", nil)
		}
		letters, err := q.List(ctx, *limit)
		if err != nil {
			return errors.UnavailableErr("read dead letters", err)
		}
		return a.print(letters, []string{"TOPIC", "REASON", "BYTES", "WHEN"}, deadLetterRows(letters, time.Now()))
	}
}

func deadLetterRows(letters []models.DeadLetter, now time.Time) [][]string {
	rows := make([][]string, 0, len(letters))
	for _, l := range letters {
		rows = append(rows, []string{l.Topic, l.Reason, strconv.Itoa(len(l.Payload)), utils.RelativeTime(l.ReceivedAt, now)})
	}
	return rows
}
