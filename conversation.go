package main

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// FlowState names the multi-step input a session is waiting for.
type FlowState string

const (
	StateIdle                           FlowState = ""
	StateAwaitingAccountUpload          FlowState = "awaiting_account_upload"
	StateAwaitingMonthFilter            FlowState = "awaiting_month"
	StateAwaitingNotificationText       FlowState = "awaiting_notification_text"
	StateAwaitingNotificationAudience   FlowState = "awaiting_notification_audience"
	StateAwaitingNotificationRecipient  FlowState = "awaiting_notification_recipient_id"
	StateAwaitingNotificationConfirm    FlowState = "awaiting_notification_confirm"
	StateAwaitingUserIDForManagement    FlowState = "awaiting_user_id"
	StateAwaitingWalletAddress          FlowState = "awaiting_wallet"
	StateAwaitingShiftOpenTime          FlowState = "awaiting_shift_time"
	StateAwaitingShiftCloseDetails      FlowState = "awaiting_shift_close"
	StateAwaitingProxyResponseText      FlowState = "awaiting_proxy_response"
	StateAwaitingNumbersResponseText    FlowState = "awaiting_numbers_response"
	StateAwaitingCallDateTime           FlowState = "awaiting_call_datetime"
	StateAwaitingCustomNotificationText FlowState = "awaiting_custom_notification_text"
	StateAwaitingAdminUsername          FlowState = "awaiting_admin_username"
)

// Accumulator keys.
const (
	dataNotificationKind = "notification_kind"
	dataCallDateTime     = "call_datetime"
	dataCustomText       = "custom_text"
	dataAudience         = "audience"
	dataRecipient        = "recipient"
	dataPurpose          = "purpose"
)

// adminStates are only ever entered by administrators; their handlers check
// the admin set again on every turn.
var adminStates = map[FlowState]bool{
	StateAwaitingMonthFilter:            true,
	StateAwaitingNotificationText:       true,
	StateAwaitingNotificationAudience:   true,
	StateAwaitingNotificationRecipient:  true,
	StateAwaitingNotificationConfirm:    true,
	StateAwaitingUserIDForManagement:    true,
	StateAwaitingProxyResponseText:      true,
	StateAwaitingNumbersResponseText:    true,
	StateAwaitingCallDateTime:           true,
	StateAwaitingCustomNotificationText: true,
	StateAwaitingAdminUsername:          true,
}

// SessionKey identifies one user inside one chat. In a private chat both ids
// are the same; in a group every member gets a session of their own.
type SessionKey struct {
	ChatID int64
	UserID int64
}

func (k SessionKey) String() string {
	return strconv.FormatInt(k.ChatID, 10) + ":" + strconv.FormatInt(k.UserID, 10)
}

// Conversation is the pending flow of a session together with the values
// collected so far.
type Conversation struct {
	State FlowState         `json:"state"`
	Data  map[string]string `json:"data,omitempty"`
}

func (c Conversation) Idle() bool {
	return c.State == StateIdle
}

func (c Conversation) Get(key string) string {
	if c.Data == nil {
		return ""
	}
	return c.Data[key]
}

// StateStore keeps one Conversation per session. Implementations must be
// safe for concurrent use by different sessions.
type StateStore interface {
	Load(ctx context.Context, key SessionKey) (Conversation, error)
	Save(ctx context.Context, key SessionKey, conv Conversation) error
	Delete(ctx context.Context, key SessionKey) error
}

func copyData(data map[string]string) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

// beginFlow starts a new flow, dropping whatever the session had pending.
func beginFlow(ctx context.Context, store StateStore, key SessionKey, state FlowState, data map[string]string) error {
	return store.Save(ctx, key, Conversation{State: state, Data: copyData(data)})
}

// advanceFlow moves an active flow to its follow-up state, keeping the
// collected values and adding data.
func advanceFlow(ctx context.Context, store StateStore, key SessionKey, conv Conversation, state FlowState, data map[string]string) error {
	merged := copyData(conv.Data)
	if merged == nil && len(data) > 0 {
		merged = make(map[string]string, len(data))
	}
	for k, v := range data {
		merged[k] = v
	}
	return store.Save(ctx, key, Conversation{State: state, Data: merged})
}

// finishFlow drops the state and the accumulator together.
func finishFlow(ctx context.Context, store StateStore, key SessionKey) error {
	return store.Delete(ctx, key)
}

// memoryStateStore keeps conversations in process memory. Entries only go
// away on Delete unless a size or TTL limit is configured.
type memoryStateStore struct {
	cache *expirable.LRU[SessionKey, Conversation]
}

// newMemoryStateStore creates the in-memory store. size 0 means unbounded and
// ttl 0 means entries never expire.
func newMemoryStateStore(size int, ttl time.Duration) *memoryStateStore {
	return &memoryStateStore{
		cache: expirable.NewLRU[SessionKey, Conversation](size, nil, ttl),
	}
}

func (m *memoryStateStore) Load(ctx context.Context, key SessionKey) (Conversation, error) {
	conv, ok := m.cache.Get(key)
	if !ok {
		return Conversation{}, nil
	}
	conv.Data = copyData(conv.Data)
	return conv, nil
}

func (m *memoryStateStore) Save(ctx context.Context, key SessionKey, conv Conversation) error {
	if conv.Idle() {
		m.cache.Remove(key)
		return nil
	}
	conv.Data = copyData(conv.Data)
	m.cache.Add(key, conv)
	return nil
}

func (m *memoryStateStore) Delete(ctx context.Context, key SessionKey) error {
	m.cache.Remove(key)
	return nil
}
