package returns

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_ApproverPaths(t *testing.T) {
	assert.NoError(t, CanTransition(RoleApprover, MethodPickup, StatusPending, StatusApproved))
	assert.NoError(t, CanTransition(RoleApprover, MethodDropbox, StatusPending, StatusRejected))

	// Approvers only act on pending returns
	assert.Error(t, CanTransition(RoleApprover, MethodPickup, StatusApproved, StatusApproved))
	assert.Error(t, CanTransition(RoleApprover, MethodPickup, StatusWarehouseReceived, StatusApproved))
}

func TestCanTransition_LogisticsPaths(t *testing.T) {
	assert.NoError(t, CanTransition(RoleLogistics, MethodPickup, StatusApproved, StatusPickupScheduled))
	assert.NoError(t, CanTransition(RoleLogistics, MethodPickup, StatusPickupScheduled, StatusPickupCompleted))

	// Cannot skip scheduling
	assert.Error(t, CanTransition(RoleLogistics, MethodPickup, StatusApproved, StatusPickupCompleted))
	// Logistics never approves
	assert.Error(t, CanTransition(RoleLogistics, MethodPickup, StatusPending, StatusApproved))
}

func TestCanTransition_WarehousePaths(t *testing.T) {
	assert.NoError(t, CanTransition(RoleWarehouse, MethodPickup, StatusPickupCompleted, StatusWarehouseReceived))
	assert.NoError(t, CanTransition(RoleWarehouse, MethodDropbox, StatusDropboxReceived, StatusWarehouseReceived))
	assert.NoError(t, CanTransition(RoleWarehouse, MethodPickup, StatusWarehouseReceived, StatusRefundInitiated))
	assert.NoError(t, CanTransition(RoleWarehouse, MethodPickup, StatusWarehouseReceived, StatusRejected))
	assert.NoError(t, CanTransition(RoleWarehouse, MethodPickup, StatusRefundInitiated, StatusCompleted))
}

func TestCanTransition_MethodGate(t *testing.T) {
	// Dropbox returns never enter the pickup branch
	err := CanTransition(RoleLogistics, MethodDropbox, StatusApproved, StatusPickupScheduled)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not reachable")

	err = CanTransition(RoleLogistics, MethodDropbox, StatusPickupScheduled, StatusPickupCompleted)
	assert.Error(t, err)
}

func TestCanTransition_TerminalStates(t *testing.T) {
	for _, current := range []Status{StatusCompleted, StatusRejected} {
		err := CanTransition(RoleWarehouse, MethodPickup, current, StatusWarehouseReceived)
		assert.Error(t, err, "terminal status %s must refuse transitions", current)
	}
}

func TestCanTransition_RequesterNeverTransitions(t *testing.T) {
	targets := []Status{
		StatusApproved, StatusRejected, StatusPickupScheduled, StatusPickupCompleted,
		StatusDropboxReceived, StatusWarehouseReceived, StatusRefundInitiated, StatusCompleted,
	}
	for _, target := range targets {
		assert.Error(t, CanTransition(RoleRequester, MethodPickup, StatusPending, target))
	}
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusRefundInitiated.IsTerminal())
}
