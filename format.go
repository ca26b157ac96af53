package main

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	listAllLimit     = 10
	listMonthLimit   = 20
	listUnsentLimit  = 15
	listByUserLimit  = 20
	listUsersLimit   = 30
	timestampLayout  = "02.01.2006 15:04:05"
	shortStampLayout = "02.01 15:04"
)

func sentMark(sent bool) string {
	if sent {
		return "✅"
	}
	return "❌"
}

func lockMark(locked bool) string {
	if locked {
		return "🔒"
	}
	return "🔓"
}

func formatAccountInfo(account Account) string {
	sent := "❌ Not sent"
	if account.Sent {
		sent = "✅ Sent"
	}
	locked := "🔓 Unlocked"
	if account.Locked {
		locked = "🔒 Locked"
	}
	return fmt.Sprintf(
		"📁 Archive #%d\n"+
			"👤 User: %s (%d)\n"+
			"📅 Month: %s\n"+
			"📄 File: %s\n"+
			"📍 Status: %s\n"+
			"🔐 Lock: %s\n"+
			"⏰ Uploaded: %s",
		account.ID,
		account.User.displayName(), account.User.TelegramID,
		account.Month,
		filepath.Base(account.FileName),
		sent,
		locked,
		account.CreatedAt.Format(timestampLayout),
	)
}

func formatUserInfo(user User, gate *AccessGate) string {
	access := "❌ Access denied"
	if gate.HasAccess(&user) {
		access = "✅ Access granted"
	}
	role := "worker"
	if gate.IsAdmin(user.TelegramID) {
		role = "administrator"
	}
	userName := user.UserName
	if userName == "" {
		userName = "not set"
	}
	return fmt.Sprintf(
		"👤 User #%d\n"+
			"🆔 Telegram ID: %d\n"+
			"📝 Username: %s\n"+
			"🎖 Role: %s\n"+
			"💳 TRX wallet: %s\n"+
			"🔑 %s\n"+
			"⏰ Created: %s",
		user.ID,
		user.TelegramID,
		userName,
		role,
		user.wallet(),
		access,
		user.CreatedAt.Format(timestampLayout),
	)
}

// formatAccountList renders at most limit accounts below title, followed by
// a remainder line. line renders a single account.
func formatAccountList(title string, accounts []Account, limit int, line func(Account) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nTotal: %d\n\n", title, len(accounts))
	for i, account := range accounts {
		if i == limit {
			break
		}
		b.WriteString(line(account))
		b.WriteString("\n")
	}
	if len(accounts) > limit {
		fmt.Fprintf(&b, "\n... and %d more archives", len(accounts)-limit)
	}
	b.WriteString("\n\nOpen one with /account <ID>")
	return b.String()
}

func accountLineFull(a Account) string {
	return fmt.Sprintf("%s %s ID:%d | %s | %s | %s",
		sentMark(a.Sent), lockMark(a.Locked), a.ID, a.User.displayName(), a.Month, a.CreatedAt.Format(shortStampLayout))
}

func accountLineMonth(a Account) string {
	return fmt.Sprintf("%s %s ID:%d | %s", sentMark(a.Sent), lockMark(a.Locked), a.ID, a.User.displayName())
}

func accountLineUnsent(a Account) string {
	return fmt.Sprintf("%s ID:%d | %s | %s", lockMark(a.Locked), a.ID, a.User.displayName(), a.Month)
}

func accountLineByUser(a Account) string {
	return fmt.Sprintf("%s %s ID:%d | %s | %s | %s",
		sentMark(a.Sent), lockMark(a.Locked), a.ID, a.Month, filepath.Base(a.FileName), a.CreatedAt.Format(shortStampLayout))
}

func formatUserList(users []User, gate *AccessGate) string {
	var b strings.Builder
	b.WriteString("👥 Users\n\n")
	for i, user := range users {
		if i == listUsersLimit {
			break
		}
		u := user
		fmt.Fprintf(&b, "%s ID:%d | TG:%d | %s\n", sentMark(gate.HasAccess(&u)), user.ID, user.TelegramID, user.displayName())
	}
	if len(users) > listUsersLimit {
		fmt.Fprintf(&b, "\n... and %d more users", len(users)-listUsersLimit)
	}
	return b.String()
}
