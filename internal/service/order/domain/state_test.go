package domain

import (
	"testing"

	"minimart/internal/service/identity"
)

func TestCustomerTransitions(t *testing.T) {
	if !CanTransition(identity.RoleCustomer, StatusPending, StatusCancelled) {
		t.Fatal("customer must be able to cancel a pending order")
	}

	forbidden := []struct{ from, to Status }{
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCompleted},
		{StatusInProgress, StatusCancelled},
		{StatusInProgress, StatusCompleted},
		{StatusCancelled, StatusCancelledAck},
		{StatusCompleted, StatusCancelled},
	}
	for _, c := range forbidden {
		if CanTransition(identity.RoleCustomer, c.from, c.to) {
			t.Errorf("customer %s -> %s must be forbidden", c.from, c.to)
		}
	}
}

func TestStaffTransitions(t *testing.T) {
	for _, role := range []identity.Role{identity.RoleEmployee, identity.RoleOwner} {
		allowed := []struct{ from, to Status }{
			{StatusPending, StatusInProgress},
			{StatusPending, StatusCancelled},
			{StatusInProgress, StatusCompleted},
			{StatusInProgress, StatusCancelled},
			{StatusCancelled, StatusCancelledAck},
		}
		for _, c := range allowed {
			if !CanTransition(role, c.from, c.to) {
				t.Errorf("%s: %s -> %s must be allowed", role, c.from, c.to)
			}
		}

		forbidden := []struct{ from, to Status }{
			{StatusPending, StatusCompleted}, // 不允许跳状态
			{StatusPending, StatusCancelledAck},
			{StatusCompleted, StatusCancelled}, // 终态
			{StatusCancelledAck, StatusCancelled},
			{StatusCancelledAck, StatusPending},
		}
		for _, c := range forbidden {
			if CanTransition(role, c.from, c.to) {
				t.Errorf("%s: %s -> %s must be forbidden", role, c.from, c.to)
			}
		}
	}
}

func TestTouchesInventory(t *testing.T) {
	if !TouchesInventory(StatusPending, StatusCancelled) {
		t.Fatal("pending -> cancelled must restore stock")
	}
	if !TouchesInventory(StatusInProgress, StatusCancelled) {
		t.Fatal("in-progress -> cancelled must restore stock")
	}
	none := []struct{ from, to Status }{
		{StatusPending, StatusInProgress},
		{StatusInProgress, StatusCompleted},
		{StatusCancelled, StatusCancelledAck},
		{StatusCancelled, StatusCancelled},
	}
	for _, c := range none {
		if TouchesInventory(c.from, c.to) {
			t.Errorf("%s -> %s must not touch inventory", c.from, c.to)
		}
	}
}
