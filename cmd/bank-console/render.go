package main

import (
	// Go Internal Packages
	"fmt"
	"maps"
	"slices"
	"strconv"
	"time"

	// Local Packages
	models "bankfeed/models"
	feeds "bankfeed/services/feeds"
	utils "bankfeed/utils"
)

var (
	accountHeaders      = []string{"ACCOUNT", "HOLDER", "TYPE", "STATUS", "BALANCE", "AVAILABLE", "UPDATED"}
	transactionHeaders  = []string{"ID", "FROM", "TO", "AMOUNT", "TYPE", "STATUS", "UPDATED"}
	notificationHeaders = []string{"ID", "", "TYPE", "TITLE", "MESSAGE", "WHEN"}
)

func accountRows(accounts []models.Account, now time.Time) [][]string {
	rows := make([][]string, 0, len(accounts))
	for _, acc := range accounts {
		rows = append(rows, []string{
			utils.FormatAccountNumber(acc.AccountNumber),
			acc.HolderName,
			acc.Type,
			acc.Status,
			utils.FormatCurrency(acc.Balance, acc.Currency),
			utils.FormatCurrency(acc.AvailableBalance, acc.Currency),
			when(acc.UpdatedAt, now),
		})
	}
	return rows
}

func transactionRows(txs []models.Transaction, now time.Time) [][]string {
	rows := make([][]string, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, transactionRow(tx, now))
	}
	return rows
}

func transactionRow(tx models.Transaction, now time.Time) []string {
	return []string{
		tx.ID,
		utils.FormatAccountNumber(tx.FromAccount),
		utils.FormatAccountNumber(tx.ToAccount),
		utils.FormatCurrency(tx.SignedAmount(), tx.Currency),
		tx.Direction,
		tx.Status,
		when(tx.UpdatedAt, now),
	}
}

func notificationRows(ns []models.Notification, now time.Time) [][]string {
	rows := make([][]string, 0, len(ns))
	for _, n := range ns {
		rows = append(rows, notificationRow(n, now))
	}
	return rows
}

func notificationRow(n models.Notification, now time.Time) []string {
	mark := "*"
	if n.IsRead {
		mark = ""
	}
	return []string{n.ID, mark, n.Category, n.Title, n.Message, when(n.CreatedAt, now)}
}

func summaryLines(s feeds.Summary) []string {
	lines := []string{
		fmt.Sprintf("total: %d, pending: %d", s.Total, s.Pending),
	}
	for _, currency := range sortedKeys(s.Volume) {
		lines = append(lines, fmt.Sprintf("%s volume %s, net %s", currency,
			utils.FormatCurrency(s.Volume[currency], currency),
			utils.FormatCurrency(s.Net[currency], currency)))
	}
	for _, status := range sortedKeys(s.ByStatus) {
		lines = append(lines, status+": "+strconv.Itoa(s.ByStatus[status]))
	}
	return lines
}

func when(i models.Instant, now time.Time) string {
	if i.IsZero() {
		return "-"
	}
	return utils.RelativeTime(i.Time, now)
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
