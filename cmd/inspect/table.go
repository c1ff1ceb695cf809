package main

import (
	"fmt"
	"gatekeeper/domain"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const maxTextWidth = 60

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func renderUsers(w io.Writer, users []domain.UserProfile, colours bool) {
	table := newTable(w, []string{"User ID", "Username", "Phone", "Name", "Age", "Joined", "Verified"})
	for _, u := range users {
		age := lo.TernaryF(u.Age == nil, func() string { return "-" }, func() string { return strconv.Itoa(*u.Age) })
		table.Append([]string{
			strconv.FormatInt(int64(u.ID), 10),
			orDash(u.Username),
			orDash(u.Phone),
			orDash(u.GivenName + " " + u.FamilyName),
			age,
			formatTime(u.JoinedAt),
			verifiedCell(u, colours),
		})
	}
	table.Render()
}

func renderLogs(w io.Writer, entries []domain.ModerationLogEntry, colours bool) {
	table := newTable(w, []string{"At", "User", "Chat", "Lang", "Deleted", "Reason", "Text"})
	for _, e := range entries {
		deleted := "no"
		if e.Deleted {
			deleted = paint(colours, color.FgRed, "yes")
		}
		table.Append([]string{
			formatTime(e.At),
			fmt.Sprintf("%d@%s", e.UserID, orDash(e.Username)),
			strconv.FormatInt(int64(e.ChatID), 10),
			orDash(e.Lang),
			deleted,
			orDash(e.Reason),
			shorten(e.Text),
		})
	}
	table.Render()
}

func verifiedCell(u domain.UserProfile, colours bool) string {
	if !u.Verified {
		return paint(colours, color.FgYellow, "pending")
	}
	at := "yes"
	if u.VerifiedAt != nil {
		at = formatTime(*u.VerifiedAt)
	}
	return paint(colours, color.FgGreen, at)
}

func paint(colours bool, c color.Color, s string) string {
	if !colours {
		return s
	}
	return c.Render(s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateTime)
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

func shorten(s string) string {
	runes := []rune(s)
	if len(runes) <= maxTextWidth {
		return s
	}
	return string(runes[:maxTextWidth-1]) + "…"
}
