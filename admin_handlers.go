package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	purposeAccounts = "accounts"
	purposeCard     = "card"
	audienceSingle  = "single"
	audienceAll     = "all"
)

func (a *App) handleAdminPanel(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	a.reply(t.ev.ChatID, "🛠 Administrator panel\n\nChoose a section below.", adminMainKeyboard())
	return nil
}

func (a *App) handleAccountsMenu(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	a.reply(t.ev.ChatID, "📋 Archives\n\nChoose how to view them:", accountsViewKeyboard())
	return nil
}

func (a *App) handleAccountsAll(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	accounts, err := t.store.AllAccounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		a.reply(t.ev.ChatID, "📭 No archives yet.", nil)
		return nil
	}
	a.reply(t.ev.ChatID, formatAccountList("📊 All archives", accounts, listAllLimit, accountLineFull), nil)
	return nil
}

func (a *App) handleAccountsByMonth(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	months, err := t.store.AccountMonths(false)
	if err != nil {
		return err
	}
	if err := a.begin(t, StateAwaitingMonthFilter, nil); err != nil {
		return err
	}
	text := "📅 Send a month as YYYY-MM, for example 2024-01."
	if len(months) == 0 {
		a.reply(t.ev.ChatID, text, nil)
		return nil
	}
	a.reply(t.ev.ChatID, text+"\n\nOr pick one below:", monthsKeyboard(months))
	return nil
}

func (a *App) handleMonthInput(t *turn) error {
	month, err := validateMonth(t.ev.Text)
	if err != nil {
		a.reply(t.ev.ChatID, "❌ Invalid format. Use YYYY-MM, for example 2024-01.", nil)
		return nil
	}
	if err := a.finish(t); err != nil {
		return err
	}
	return a.showMonth(t, month)
}

func (a *App) handleAccountsMonth(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	month, err := monthFromToken(t.ev.Action.ID)
	if err != nil {
		a.reply(t.ev.ChatID, textProcessingErr, nil)
		return nil
	}
	if t.conv.State == StateAwaitingMonthFilter {
		if err := a.finish(t); err != nil {
			return err
		}
	}
	return a.showMonth(t, month)
}

func (a *App) showMonth(t *turn, month string) error {
	accounts, err := t.store.AccountsByMonth(month)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		a.reply(t.ev.ChatID, fmt.Sprintf("📭 No archives for %s.", month), nil)
		return nil
	}
	text := formatAccountList("📅 Archives for "+month, accounts, listMonthLimit, accountLineMonth)
	if keyboard, ok := monthExportKeyboard(month); ok {
		a.reply(t.ev.ChatID, text, keyboard)
		return nil
	}
	a.reply(t.ev.ChatID, text, nil)
	return nil
}

func (a *App) handleAccountsExport(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	month, err := monthFromToken(t.ev.Action.ID)
	if err != nil {
		a.reply(t.ev.ChatID, textProcessingErr, nil)
		return nil
	}
	accounts, err := t.store.AccountsByMonth(month)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		a.reply(t.ev.ChatID, fmt.Sprintf("📭 No archives for %s.", month), nil)
		return nil
	}
	a.answer(t, "Generating ZIP file...", false)
	name := "archives_" + month
	buf, err := a.buildMonthZip(t, name, accounts)
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(t.ev.ChatID, tgbotapi.FileBytes{
		Name:  name + ".zip",
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("📦 %d archives for %s", len(accounts), month)
	if _, err := a.bot.Send(doc); err != nil {
		return err
	}
	a.logAction(t, "accounts_exported", nil, &t.user.ID, fmt.Sprintf("Month: %s, archives: %d", month, len(accounts)))
	return nil
}

// buildMonthZip bundles the stored files of accounts, one folder per month.
// Files that cannot be read are left out and reported.
func (a *App) buildMonthZip(t *turn, name string, accounts []Account) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	var missing []string
	for _, account := range accounts {
		r, err := a.archives.Open(t.ctx, account.FilePath)
		if err != nil {
			log.Printf("error opening archive #%v: %v", account.ID, err)
			missing = append(missing, strconv.FormatUint(uint64(account.ID), 10))
			continue
		}
		f, err := w.Create(fmt.Sprintf("%s/%d_%s", name, account.ID, account.FileName))
		if err == nil {
			_, err = io.Copy(f, r)
		}
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("add archive #%v to zip: %w", account.ID, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		a.reply(t.ev.ChatID, "⚠️ Could not read archives: "+strings.Join(missing, ", "), nil)
	}
	return buf, nil
}

func (a *App) handleAccountsUnsent(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	accounts, err := t.store.UnsentAccounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		a.reply(t.ev.ChatID, "✅ All archives have been sent.", nil)
		return nil
	}
	a.reply(t.ev.ChatID, formatAccountList("⏳ Archives not sent", accounts, listUnsentLimit, accountLineUnsent), nil)
	return nil
}

func (a *App) handleAccountsByUserStart(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if err := a.begin(t, StateAwaitingUserIDForManagement, map[string]string{dataPurpose: purposeAccounts}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "👤 Send the Telegram ID of the user.", nil)
	return nil
}

func (a *App) handleUserCardStart(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if err := a.begin(t, StateAwaitingUserIDForManagement, map[string]string{dataPurpose: purposeCard}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "🪪 Send the Telegram ID of the user.", nil)
	return nil
}

func (a *App) handleUserIDInput(t *turn) error {
	id, err := parseTelegramID(t.ev.Text)
	if err != nil {
		a.reply(t.ev.ChatID, "❌ Invalid ID. Send a numeric Telegram ID.", nil)
		return nil
	}
	user, err := t.store.UserByTelegramID(id)
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, textUserNotFound+" Send another ID or /cancel.", nil)
		return nil
	} else if err != nil {
		return err
	}
	if err := a.finish(t); err != nil {
		return err
	}
	if t.conv.Get(dataPurpose) == purposeAccounts {
		return a.showUserAccounts(t, user)
	}
	return a.showUserCard(t, user)
}

func (a *App) showUserAccounts(t *turn, user *User) error {
	accounts, err := t.store.AccountsByUser(user.ID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		a.reply(t.ev.ChatID, fmt.Sprintf("📭 %s has no archives.", user.displayName()), nil)
		return nil
	}
	title := fmt.Sprintf("👤 Archives of %s (%d)", user.displayName(), user.TelegramID)
	a.reply(t.ev.ChatID, formatAccountList(title, accounts, listByUserLimit, accountLineByUser), nil)
	return nil
}

func (a *App) showUserCard(t *turn, user *User) error {
	count, err := t.store.CountAccountsSince(user.ID, nil)
	if err != nil {
		return err
	}
	text := formatUserInfo(*user, a.gate) + fmt.Sprintf("\n📊 Archives: %d", count)
	a.reply(t.ev.ChatID, text, userCardKeyboard(*user, a.gate))
	return nil
}

func (a *App) handleUserFindStart(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if err := a.begin(t, StateAwaitingAdminUsername, nil); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "🔎 Send the username, with or without @.", nil)
	return nil
}

func (a *App) handleUsernameInput(t *turn) error {
	text, err := requireText(t.ev.Text)
	if err != nil {
		a.reply(t.ev.ChatID, "❌ Send a username.", nil)
		return nil
	}
	user, err := t.store.UserByUserName(strings.TrimPrefix(text, "@"))
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, textUserNotFound+" Send another username or /cancel.", nil)
		return nil
	} else if err != nil {
		return err
	}
	if err := a.finish(t); err != nil {
		return err
	}
	return a.showUserCard(t, user)
}

func (a *App) handleManageUsers(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	users, err := t.store.ListUsers()
	if err != nil {
		return err
	}
	withAccess := 0
	for i := range users {
		if a.gate.HasAccess(&users[i]) {
			withAccess++
		}
	}
	a.reply(t.ev.ChatID, fmt.Sprintf(
		"👥 Users\n\nTotal: %d\nWith access: %d\nWithout access: %d\n\n"+
			"/allow_user <ID> grants access\n/deny_user <ID> revokes it\n/user_info <ID> shows a user\n/list_users lists everyone",
		len(users), withAccess, len(users)-withAccess,
	), manageUsersKeyboard())
	return nil
}

func (a *App) handleAccessMenu(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	a.reply(t.ev.ChatID,
		"🔐 Access management\n\n"+
			"/allow_user <ID> grants access to a user\n"+
			"/deny_user <ID> revokes it\n\n"+
			"IDs are Telegram user IDs. Administrators always have access.",
		nil)
	return nil
}

func (a *App) handleListUsers(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	users, err := t.store.ListUsers()
	if err != nil {
		return err
	}
	if len(users) == 0 {
		a.reply(t.ev.ChatID, "📭 No users yet.", nil)
		return nil
	}
	a.reply(t.ev.ChatID, formatUserList(users, a.gate), nil)
	return nil
}

func (a *App) handleUserInfoCommand(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	id, err := t.ev.Command.IntArg()
	if err != nil {
		a.reply(t.ev.ChatID, t.ev.Command.UsageText(), nil)
		return nil
	}
	user, err := t.store.UserByTelegramID(id)
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, textUserNotFound, nil)
		return nil
	} else if err != nil {
		return err
	}
	return a.showUserCard(t, user)
}

func (a *App) handleAllowUserCommand(t *turn) error {
	return a.handleAccessCommand(t, true)
}

func (a *App) handleDenyUserCommand(t *turn) error {
	return a.handleAccessCommand(t, false)
}

func (a *App) handleAccessCommand(t *turn, grant bool) error {
	if !a.requireAdmin(t) {
		return nil
	}
	id, err := t.ev.Command.IntArg()
	if err != nil {
		a.reply(t.ev.ChatID, t.ev.Command.UsageText(), nil)
		return nil
	}
	return a.setAccess(t, id, grant)
}

func (a *App) handleUserGrant(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	return a.setAccess(t, t.ev.Action.ID, true)
}

func (a *App) handleUserRevoke(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	return a.setAccess(t, t.ev.Action.ID, false)
}

// setAccess changes the access flag of the user with the given Telegram id,
// tells them about it and records who did it.
func (a *App) setAccess(t *turn, telegramID int64, grant bool) error {
	if !grant && a.gate.IsAdmin(telegramID) {
		a.reply(t.ev.ChatID, "❌ Administrators always keep access.", nil)
		return nil
	}
	user, err := t.store.SetUserAccess(telegramID, grant)
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, fmt.Sprintf("%s The user %d must send /start to the bot first.", textUserNotFound, telegramID), nil)
		return nil
	} else if err != nil {
		return err
	}

	var userText, adminText, logType string
	var userMarkup any
	if grant {
		userText = "✅ You have been granted access to the bot.\n\nUse the menu below."
		userMarkup = userMainKeyboard()
		adminText = fmt.Sprintf("✅ Access granted to %s (%d).", user.displayName(), user.TelegramID)
		logType = "user_access_allowed"
	} else {
		userText = "❌ Your access to the bot has been revoked."
		userMarkup = tgbotapi.NewRemoveKeyboard(true)
		adminText = fmt.Sprintf("⛔ Access revoked for %s (%d).", user.displayName(), user.TelegramID)
		logType = "user_access_denied"
	}
	a.reply(t.ev.ChatID, adminText, nil)
	if err := a.send(user.TelegramID, userText, userMarkup); err != nil {
		log.Printf("error notifying user %v about access change: %v", user.TelegramID, err)
		a.reply(t.ev.ChatID, fmt.Sprintf("⚠️ Could not notify the user: %v", err), nil)
	}
	a.logAction(t, logType, &user.ID, &t.user.ID, fmt.Sprintf("Telegram ID: %d", user.TelegramID))
	return nil
}

func (a *App) handleAccountCommand(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	id, err := t.ev.Command.IntArg()
	if err != nil {
		a.reply(t.ev.ChatID, t.ev.Command.UsageText(), nil)
		return nil
	}
	account, err := t.store.AccountByID(uint(id))
	if errors.Is(err, errAccountNotFound) {
		a.reply(t.ev.ChatID, textAccountMissing, nil)
		return nil
	} else if err != nil {
		return err
	}
	a.reply(t.ev.ChatID, formatAccountInfo(*account), accountActionsKeyboard(account.ID))
	return nil
}

// handleAccountFlag serves the sent/unsent/lock/unlock buttons of an
// archive card.
func (a *App) handleAccountFlag(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if t.ev.Action.ID <= 0 {
		a.reply(t.ev.ChatID, textProcessingErr, nil)
		return nil
	}
	id := uint(t.ev.Action.ID)
	var account *Account
	var err error
	var logType, toast string
	switch t.ev.Action.Kind {
	case ActionAccountSent:
		account, err = t.store.SetAccountSent(id, true)
		logType, toast = "account_marked_sent", "Marked as sent"
	case ActionAccountUnsent:
		account, err = t.store.SetAccountSent(id, false)
		logType, toast = "account_marked_unsent", "Marked as not sent"
	case ActionAccountLock:
		account, err = t.store.SetAccountLocked(id, true)
		logType, toast = "account_locked", "Locked"
	case ActionAccountUnlock:
		account, err = t.store.SetAccountLocked(id, false)
		logType, toast = "account_unlocked", "Unlocked"
	default:
		return fmt.Errorf("%w: %v", errUnknownAction, t.ev.Action)
	}
	if errors.Is(err, errAccountNotFound) {
		a.answer(t, textAccountMissing, true)
		return nil
	} else if err != nil {
		return err
	}
	a.answer(t, toast, false)
	a.reply(t.ev.ChatID, formatAccountInfo(*account), accountActionsKeyboard(account.ID))
	a.logAction(t, logType, &account.UserID, &t.user.ID, fmt.Sprintf("Account ID: %d", account.ID))
	return nil
}

func (a *App) handleNotifyMenu(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	a.reply(t.ev.ChatID, "📢 Choose the notification type:", notificationTypeKeyboard())
	return nil
}

var notifyActionKinds = map[ActionKind]NotificationKind{
	ActionNotifySalary:  NotifySalary,
	ActionNotifyCall:    NotifyCall,
	ActionNotifyPenalty: NotifyPenalty,
	ActionNotifyCustom:  NotifyCustom,
}

func (a *App) handleNotifyKind(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	kind, ok := notifyActionKinds[t.ev.Action.Kind]
	if !ok {
		return fmt.Errorf("%w: %v", errUnknownAction, t.ev.Action)
	}
	data := map[string]string{dataNotificationKind: string(kind)}
	switch kind {
	case NotifyCall:
		if err := a.begin(t, StateAwaitingCallDateTime, data); err != nil {
			return err
		}
		a.reply(t.ev.ChatID, "📞 Send the call date and time as DD.MM.YYYY HH:MM, for example 15.01.2024 14:30.", nil)
	case NotifyCustom:
		if err := a.begin(t, StateAwaitingCustomNotificationText, data); err != nil {
			return err
		}
		a.reply(t.ev.ChatID, "📝 Send the notification text.", nil)
	default:
		if err := a.begin(t, StateAwaitingNotificationAudience, data); err != nil {
			return err
		}
		a.reply(t.ev.ChatID, "👥 Who should receive it?", notificationAudienceKeyboard())
	}
	return nil
}

func (a *App) handleCallDateTimeInput(t *turn) error {
	when, err := parseCallDateTime(t.ev.Text)
	if err != nil {
		a.reply(t.ev.ChatID, "❌ Invalid format. Use DD.MM.YYYY HH:MM, for example 15.01.2024 14:30.", nil)
		return nil
	}
	if err := a.advance(t, StateAwaitingNotificationAudience, map[string]string{
		dataCallDateTime: when.Format(callDateTimeDisplay),
	}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "👥 Who should receive it?", notificationAudienceKeyboard())
	return nil
}

func (a *App) handleCustomTextInput(t *turn) error {
	text, err := requireText(t.ev.Text)
	if err != nil {
		a.reply(t.ev.ChatID, "❌ The text must not be empty.", nil)
		return nil
	}
	if err := a.advance(t, StateAwaitingNotificationAudience, map[string]string{dataCustomText: text}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "👥 Who should receive it?", notificationAudienceKeyboard())
	return nil
}

func (a *App) handleAudienceText(t *turn) error {
	a.reply(t.ev.ChatID, "👥 Use the buttons to choose who should receive it, or /cancel.", notificationAudienceKeyboard())
	return nil
}

func (a *App) handleNotifySingle(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if t.conv.State != StateAwaitingNotificationAudience {
		a.reply(t.ev.ChatID, textMenuExpired, nil)
		return nil
	}
	if err := a.advance(t, StateAwaitingNotificationRecipient, map[string]string{dataAudience: audienceSingle}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "👤 Send the Telegram ID of the recipient.", nil)
	return nil
}

func (a *App) handleNotifyAll(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if t.conv.State != StateAwaitingNotificationAudience {
		a.reply(t.ev.ChatID, textMenuExpired, nil)
		return nil
	}
	text, err := notificationFromConversation(t.conv)
	if err != nil {
		return err
	}
	if err := a.advance(t, StateAwaitingNotificationConfirm, map[string]string{dataAudience: audienceAll}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, "📢 Send to all users with access?\n\n"+text, confirmKeyboard())
	return nil
}

func (a *App) handleRecipientInput(t *turn) error {
	id, err := parseTelegramID(t.ev.Text)
	if err != nil {
		a.reply(t.ev.ChatID, "❌ Invalid ID. Send a numeric Telegram ID.", nil)
		return nil
	}
	user, err := t.store.UserByTelegramID(id)
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, textUserNotFound+" Send another ID or /cancel.", nil)
		return nil
	} else if err != nil {
		return err
	}
	text, err := notificationFromConversation(t.conv)
	if err != nil {
		return err
	}
	if err := a.advance(t, StateAwaitingNotificationConfirm, map[string]string{
		dataRecipient: strconv.FormatInt(user.TelegramID, 10),
	}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, fmt.Sprintf("📢 Send to %s (%d)?\n\n%s", user.displayName(), user.TelegramID, text), confirmKeyboard())
	return nil
}

func (a *App) handleConfirmText(t *turn) error {
	a.reply(t.ev.ChatID, "Use the buttons to confirm, or /cancel.", confirmKeyboard())
	return nil
}

// notificationFromConversation renders the notification collected in conv.
func notificationFromConversation(conv Conversation) (string, error) {
	return composeNotification(NotificationKind(conv.Get(dataNotificationKind)), NotificationParams{
		CallDateTime: conv.Get(dataCallDateTime),
		Text:         conv.Get(dataCustomText),
	})
}

func (a *App) handleConfirmYes(t *turn) error {
	if !a.requireAdmin(t) {
		return nil
	}
	if t.conv.State != StateAwaitingNotificationConfirm {
		a.reply(t.ev.ChatID, textMenuExpired, nil)
		return nil
	}
	if err := a.finish(t); err != nil {
		return err
	}
	kind := NotificationKind(t.conv.Get(dataNotificationKind))
	text, err := notificationFromConversation(t.conv)
	if err != nil {
		return err
	}

	if t.conv.Get(dataAudience) == audienceAll {
		delivered, attempted, err := a.dispatchBroadcast(t.store, t.user, kind, text)
		if err != nil {
			return err
		}
		a.reply(t.ev.ChatID, fmt.Sprintf("✅ Notification delivered to %d of %d users.", delivered, attempted), adminMainKeyboard())
		return nil
	}

	id, err := parseTelegramID(t.conv.Get(dataRecipient))
	if err != nil {
		return err
	}
	recipient, err := t.store.UserByTelegramID(id)
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, textUserNotFound, nil)
		return nil
	} else if err != nil {
		return err
	}
	if err := a.dispatchSingle(t.store, t.user, recipient, kind, text); err != nil {
		a.reply(t.ev.ChatID, fmt.Sprintf("❌ Delivery failed: %v", err), adminMainKeyboard())
		return nil
	}
	a.reply(t.ev.ChatID, fmt.Sprintf("✅ Notification sent to %s.", recipient.displayName()), adminMainKeyboard())
	return nil
}

func (a *App) handleConfirmNo(t *turn) error {
	if err := a.finish(t); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, textFlowCancelled, a.mainKeyboard(t))
	return nil
}

// handleUserMessageStart starts a free-text message to the user on a card.
func (a *App) handleUserMessageStart(t *turn) error {
	return a.startDirectReply(t, StateAwaitingNotificationText, "✉️ Send the message for %s.")
}

// handleRequestReplyStart starts the answer to a proxy or numbers request.
func (a *App) handleRequestReplyStart(t *turn) error {
	if t.ev.Action.Kind == ActionNumbersReply {
		return a.startDirectReply(t, StateAwaitingNumbersResponseText, "📱 Send the numbers for %s.")
	}
	return a.startDirectReply(t, StateAwaitingProxyResponseText, "🌐 Send the proxy details for %s.")
}

func (a *App) startDirectReply(t *turn, state FlowState, prompt string) error {
	if !a.requireAdmin(t) {
		return nil
	}
	user, err := t.store.UserByTelegramID(t.ev.Action.ID)
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, textUserNotFound, nil)
		return nil
	} else if err != nil {
		return err
	}
	if err := a.begin(t, state, map[string]string{
		dataRecipient: strconv.FormatInt(user.TelegramID, 10),
	}); err != nil {
		return err
	}
	a.reply(t.ev.ChatID, fmt.Sprintf(prompt, user.displayName())+"\n\n/cancel to abort.", nil)
	return nil
}

var directReplyKinds = map[FlowState]NotificationKind{
	StateAwaitingNotificationText:    NotifyDirect,
	StateAwaitingProxyResponseText:   NotifyProxy,
	StateAwaitingNumbersResponseText: NotifyNumbers,
}

// handleRequestReplyInput delivers the text typed after a reply or message
// button.
func (a *App) handleRequestReplyInput(t *turn) error {
	body, err := requireText(t.ev.Text)
	if err != nil {
		a.reply(t.ev.ChatID, "❌ The text must not be empty.", nil)
		return nil
	}
	kind := directReplyKinds[t.conv.State]
	if err := a.finish(t); err != nil {
		return err
	}
	id, err := parseTelegramID(t.conv.Get(dataRecipient))
	if err != nil {
		return err
	}
	recipient, err := t.store.UserByTelegramID(id)
	if errors.Is(err, errUserNotFound) {
		a.reply(t.ev.ChatID, textUserNotFound, nil)
		return nil
	} else if err != nil {
		return err
	}
	text, err := composeNotification(kind, NotificationParams{Text: body})
	if err != nil {
		return err
	}
	if err := a.dispatchSingle(t.store, t.user, recipient, kind, text); err != nil {
		a.reply(t.ev.ChatID, fmt.Sprintf("❌ Delivery failed: %v", err), nil)
		return nil
	}
	a.reply(t.ev.ChatID, fmt.Sprintf("✅ Sent to %s.", recipient.displayName()), nil)
	return nil
}
