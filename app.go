package main

import (
	"net/http"
	"time"

	"gorm.io/gorm"
)

// App holds everything a handler needs. One App serves all chats.
type App struct {
	cfg        Config
	bot        Messenger
	store      *Store
	states     StateStore
	gate       *AccessGate
	archives   ArchiveStore
	httpClient *http.Client
	now        func() time.Time

	commands      map[string]handlerFunc
	actions       map[ActionKind]handlerFunc
	continuations map[FlowState]continuation
}

func newApp(cfg Config, bot Messenger, db *gorm.DB, states StateStore, archives ArchiveStore) *App {
	a := &App{
		cfg:        cfg,
		bot:        bot,
		store:      newStore(db),
		states:     states,
		gate:       newAccessGate(cfg.AdminIDs),
		archives:   archives,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		now:        time.Now,
	}
	a.registerHandlers()
	return a
}

func (a *App) registerHandlers() {
	a.commands = map[string]handlerFunc{
		cmdStart:      a.handleStart,
		cmdCancel:     a.handleCancel,
		cmdUpload:     a.handleUploadStart,
		cmdProxy:      a.handleProxyRequest,
		cmdNumbers:    a.handleNumbersRequest,
		cmdWallet:     a.handleWalletStart,
		cmdShiftOpen:  a.handleShiftOpenStart,
		cmdShiftClose: a.handleShiftCloseStart,

		cmdAdmin:      a.handleAdminPanel,
		cmdAccounts:   a.handleAccountsMenu,
		cmdUsers:      a.handleManageUsers,
		cmdNotify:     a.handleNotifyMenu,
		cmdAccess:     a.handleAccessMenu,
		cmdAllowUser:  a.handleAllowUserCommand,
		cmdDenyUser:   a.handleDenyUserCommand,
		cmdUserInfo:   a.handleUserInfoCommand,
		cmdListUsers:  a.handleListUsers,
		cmdAccount:    a.handleAccountCommand,
		cmdCheckEmail: a.handleCheckEmail,
	}
	a.actions = map[ActionKind]handlerFunc{
		ActionMainMenu:     a.handleMainMenu,
		ActionShiftOpen:    a.handleShiftOpenStart,
		ActionShiftClose:   a.handleShiftCloseStart,
		ActionAttachWallet: a.handleWalletStart,

		ActionAccountsAll:     a.handleAccountsAll,
		ActionAccountsByMonth: a.handleAccountsByMonth,
		ActionAccountsMonth:   a.handleAccountsMonth,
		ActionAccountsExport:  a.handleAccountsExport,
		ActionAccountsUnsent:  a.handleAccountsUnsent,
		ActionAccountsByUser:  a.handleAccountsByUserStart,
		ActionAccountSent:     a.handleAccountFlag,
		ActionAccountUnsent:   a.handleAccountFlag,
		ActionAccountLock:     a.handleAccountFlag,
		ActionAccountUnlock:   a.handleAccountFlag,
		ActionManageUsers:     a.handleManageUsers,
		ActionListUsers:       a.handleListUsers,
		ActionUserCard:        a.handleUserCardStart,
		ActionUserFind:        a.handleUserFindStart,
		ActionUserGrant:       a.handleUserGrant,
		ActionUserRevoke:      a.handleUserRevoke,
		ActionUserMessage:     a.handleUserMessageStart,
		ActionNotifySalary:    a.handleNotifyKind,
		ActionNotifyCall:      a.handleNotifyKind,
		ActionNotifyPenalty:   a.handleNotifyKind,
		ActionNotifyCustom:    a.handleNotifyKind,
		ActionNotifySingle:    a.handleNotifySingle,
		ActionNotifyAll:       a.handleNotifyAll,
		ActionConfirmYes:      a.handleConfirmYes,
		ActionConfirmNo:       a.handleConfirmNo,
		ActionProxyReply:      a.handleRequestReplyStart,
		ActionNumbersReply:    a.handleRequestReplyStart,
	}
	a.continuations = map[FlowState]continuation{
		StateAwaitingAccountUpload:          {EventDocument, a.handleUploadDocument},
		StateAwaitingWalletAddress:          {EventText, a.handleWalletInput},
		StateAwaitingShiftOpenTime:          {EventText, a.handleShiftOpenInput},
		StateAwaitingShiftCloseDetails:      {EventText, a.handleShiftCloseInput},
		StateAwaitingMonthFilter:            {EventText, a.handleMonthInput},
		StateAwaitingUserIDForManagement:    {EventText, a.handleUserIDInput},
		StateAwaitingAdminUsername:          {EventText, a.handleUsernameInput},
		StateAwaitingCallDateTime:           {EventText, a.handleCallDateTimeInput},
		StateAwaitingCustomNotificationText: {EventText, a.handleCustomTextInput},
		StateAwaitingNotificationAudience:   {EventText, a.handleAudienceText},
		StateAwaitingNotificationRecipient:  {EventText, a.handleRecipientInput},
		StateAwaitingNotificationConfirm:    {EventText, a.handleConfirmText},
		StateAwaitingNotificationText:       {EventText, a.handleRequestReplyInput},
		StateAwaitingProxyResponseText:      {EventText, a.handleRequestReplyInput},
		StateAwaitingNumbersResponseText:    {EventText, a.handleRequestReplyInput},
	}
}
