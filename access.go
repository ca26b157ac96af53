package main

// AccessGate answers the two authorization questions asked on every event.
// The administrator set is fixed at startup.
type AccessGate struct {
	ids    []int64
	admins map[int64]struct{}
}

func newAccessGate(adminIDs []int64) *AccessGate {
	admins := make(map[int64]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &AccessGate{ids: append([]int64(nil), adminIDs...), admins: admins}
}

func (g *AccessGate) IsAdmin(telegramID int64) bool {
	_, ok := g.admins[telegramID]
	return ok
}

// HasAccess reports whether user may use the worker functions. A missing
// user has no access.
func (g *AccessGate) HasAccess(user *User) bool {
	if user == nil {
		return false
	}
	return user.Access || g.IsAdmin(user.TelegramID)
}

// AdminIDs returns the administrators in configuration order.
func (g *AccessGate) AdminIDs() []int64 {
	return g.ids
}
