package main

import (
	"errors"
	"fmt"
	"strings"
)

var errUsage = errors.New("usage")

const (
	cmdStart      = "start"
	cmdCancel     = "cancel"
	cmdAdmin      = "admin"
	cmdAllowUser  = "allow_user"
	cmdDenyUser   = "deny_user"
	cmdUserInfo   = "user_info"
	cmdListUsers  = "list_users"
	cmdAccount    = "account"
	cmdUpload     = "upload"
	cmdProxy      = "proxy"
	cmdNumbers    = "numbers"
	cmdWallet     = "wallet"
	cmdShiftOpen  = "shift_open"
	cmdShiftClose = "shift_close"
	cmdAccounts   = "accounts"
	cmdUsers      = "users"
	cmdNotify     = "notify"
	cmdAccess     = "access"
	cmdCheckEmail = "checkemail"
)

// Reply keyboard labels. Pressing one sends the label as plain text, so the
// router maps them back to commands before looking at pending flows.
const (
	labelUpload     = "📤 Submit archive"
	labelProxy      = "🌐 Request proxy"
	labelNumbers    = "📱 Request numbers"
	labelWallet     = "💳 Attach TRX wallet"
	labelShiftOpen  = "🟢 Open shift"
	labelShiftClose = "🔴 Close shift"
	labelAccounts   = "📋 View accounts"
	labelUsers      = "👥 Manage users"
	labelNotify     = "📢 Send notification"
	labelAccess     = "🔐 Manage access"
)

var menuLabels = map[string]string{
	labelUpload:     cmdUpload,
	labelProxy:      cmdProxy,
	labelNumbers:    cmdNumbers,
	labelWallet:     cmdWallet,
	labelShiftOpen:  cmdShiftOpen,
	labelShiftClose: cmdShiftClose,
	labelAccounts:   cmdAccounts,
	labelUsers:      cmdUsers,
	labelNotify:     cmdNotify,
	labelAccess:     cmdAccess,
}

var commandUsage = map[string]struct{ usage, example string }{
	cmdAllowUser: {"/allow_user <USER_ID>", "/allow_user 123456789"},
	cmdDenyUser:  {"/deny_user <USER_ID>", "/deny_user 123456789"},
	cmdUserInfo:  {"/user_info <USER_ID>", "/user_info 123456789"},
	cmdAccount:   {"/account <ACCOUNT_ID>", "/account 42"},
}

// Command is a typed command: its name and the positional arguments.
type Command struct {
	Name string
	Args []string
}

// parseCommand recognises slash commands ("/allow_user@bot 42") and menu
// labels. ok is false for anything else, which is then free text.
func parseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if name, ok := menuLabels[text]; ok {
		return Command{Name: name}, true
	}
	if !strings.HasPrefix(text, "/") || len(text) == 1 {
		return Command{}, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return Command{}, false
	}
	name, _, _ := strings.Cut(fields[0], "@")
	if name == "" {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(name), Args: fields[1:]}, true
}

// IntArg returns the first argument as a positive integer, or errUsage when
// it is missing or malformed.
func (c Command) IntArg() (int64, error) {
	if len(c.Args) < 1 {
		return 0, errUsage
	}
	id, err := parseTelegramID(c.Args[0])
	if err != nil {
		return 0, errUsage
	}
	return id, nil
}

// UsageText is shown when the arguments of c could not be parsed.
func (c Command) UsageText() string {
	u, ok := commandUsage[c.Name]
	if !ok {
		return fmt.Sprintf("❌ Usage: /%s", c.Name)
	}
	return fmt.Sprintf("❌ Usage: %s\n\nExample: %s", u.usage, u.example)
}
