package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	errUnknownAction   = errors.New("unknown action")
	errMalformedAction = errors.New("malformed action payload")
)

// ActionKind identifies an inline button. Kinds listed in payloadActions carry
// a numeric payload, encoded as "kind:<id>".
type ActionKind string

const (
	ActionMainMenu        ActionKind = "main_menu"
	ActionAccountsAll     ActionKind = "accounts_all"
	ActionAccountsByMonth ActionKind = "accounts_by_month"
	ActionAccountsMonth   ActionKind = "accounts_month"
	ActionAccountsExport  ActionKind = "accounts_export"
	ActionAccountsUnsent  ActionKind = "accounts_unsent"
	ActionAccountsByUser  ActionKind = "accounts_by_user"
	ActionAccountSent     ActionKind = "account_sent"
	ActionAccountUnsent   ActionKind = "account_unsent"
	ActionAccountLock     ActionKind = "account_lock"
	ActionAccountUnlock   ActionKind = "account_unlock"
	ActionManageUsers     ActionKind = "manage_users"
	ActionListUsers       ActionKind = "list_users"
	ActionUserCard        ActionKind = "user_card"
	ActionUserFind        ActionKind = "user_find"
	ActionUserGrant       ActionKind = "user_grant"
	ActionUserRevoke      ActionKind = "user_revoke"
	ActionUserMessage     ActionKind = "user_message"
	ActionNotifySalary    ActionKind = "notify_salary"
	ActionNotifyCall      ActionKind = "notify_call"
	ActionNotifyPenalty   ActionKind = "notify_penalty"
	ActionNotifyCustom    ActionKind = "notify_custom"
	ActionNotifySingle    ActionKind = "notify_single"
	ActionNotifyAll       ActionKind = "notify_all"
	ActionConfirmYes      ActionKind = "confirm_yes"
	ActionConfirmNo       ActionKind = "confirm_no"
	ActionProxyReply      ActionKind = "proxy_reply"
	ActionNumbersReply    ActionKind = "numbers_reply"
	ActionShiftOpen       ActionKind = "shift_open"
	ActionShiftClose      ActionKind = "shift_close"
	ActionAttachWallet    ActionKind = "attach_wallet"
)

var payloadActions = map[ActionKind]bool{
	ActionAccountsMonth:  true,
	ActionAccountsExport: true,
	ActionAccountSent:    true,
	ActionAccountUnsent:  true,
	ActionAccountLock:    true,
	ActionAccountUnlock:  true,
	ActionUserGrant:      true,
	ActionUserRevoke:     true,
	ActionUserMessage:    true,
	ActionProxyReply:     true,
	ActionNumbersReply:   true,
}

var plainActions = map[ActionKind]bool{
	ActionMainMenu:        true,
	ActionAccountsAll:     true,
	ActionAccountsByMonth: true,
	ActionAccountsUnsent:  true,
	ActionAccountsByUser:  true,
	ActionManageUsers:     true,
	ActionListUsers:       true,
	ActionUserCard:        true,
	ActionUserFind:        true,
	ActionNotifySalary:    true,
	ActionNotifyCall:      true,
	ActionNotifyPenalty:   true,
	ActionNotifyCustom:    true,
	ActionNotifySingle:    true,
	ActionNotifyAll:       true,
	ActionConfirmYes:      true,
	ActionConfirmNo:       true,
	ActionShiftOpen:       true,
	ActionShiftClose:      true,
	ActionAttachWallet:    true,
}

// Action is a parsed callback token.
type Action struct {
	Kind ActionKind
	ID   int64
}

func newAction(kind ActionKind) Action {
	return Action{Kind: kind}
}

func newPayloadAction(kind ActionKind, id int64) Action {
	return Action{Kind: kind, ID: id}
}

func (a Action) String() string {
	if payloadActions[a.Kind] {
		return string(a.Kind) + ":" + strconv.FormatInt(a.ID, 10)
	}
	return string(a.Kind)
}

// parseAction decodes callback data. Unknown kinds yield errUnknownAction,
// a missing or non-integer payload yields errMalformedAction.
func parseAction(data string) (Action, error) {
	kind, payload, hasPayload := strings.Cut(strings.TrimSpace(data), ":")
	k := ActionKind(kind)
	switch {
	case plainActions[k]:
		if hasPayload {
			return Action{}, fmt.Errorf("%w: %q takes no payload", errMalformedAction, data)
		}
		return Action{Kind: k}, nil
	case payloadActions[k]:
		if !hasPayload {
			return Action{}, fmt.Errorf("%w: %q needs a payload", errMalformedAction, data)
		}
		id, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q: %v", errMalformedAction, data, err)
		}
		return Action{Kind: k, ID: id}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", errUnknownAction, data)
	}
}
