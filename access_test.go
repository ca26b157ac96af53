package main

import (
	"reflect"
	"testing"
)

func TestAccessGate(t *testing.T) {
	gate := newAccessGate([]int64{30, 10})

	if !gate.IsAdmin(10) || gate.IsAdmin(20) {
		t.Fatalf("unexpected admin set")
	}
	if gate.HasAccess(nil) {
		t.Fatalf("missing user must not have access")
	}
	if gate.HasAccess(&User{TelegramID: 20}) {
		t.Fatalf("user without the flag must not have access")
	}
	if !gate.HasAccess(&User{TelegramID: 20, Access: true}) {
		t.Fatalf("user with the flag must have access")
	}
	if !gate.HasAccess(&User{TelegramID: 30}) {
		t.Fatalf("administrators always have access")
	}
	if got := gate.AdminIDs(); !reflect.DeepEqual(got, []int64{30, 10}) {
		t.Fatalf("AdminIDs() = %v", got)
	}
}
