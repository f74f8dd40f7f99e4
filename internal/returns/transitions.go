package returns

import "fmt"

// transitionTable maps a caller role to the target statuses it may set and,
// for each target, the statuses a return must currently be in. A transition
// absent from the table is illegal regardless of the record's state.
var transitionTable = map[Role]map[Status][]Status{
	RoleApprover: {
		StatusApproved: {StatusPending},
		StatusRejected: {StatusPending},
	},
	RoleLogistics: {
		StatusPickupScheduled: {StatusApproved},
		StatusPickupCompleted: {StatusPickupScheduled},
	},
	RoleWarehouse: {
		StatusWarehouseReceived: {StatusPickupCompleted, StatusDropboxReceived},
		StatusRefundInitiated:   {StatusWarehouseReceived},
		StatusRejected:          {StatusWarehouseReceived},
		StatusCompleted:         {StatusRefundInitiated},
	},
}

// methodStatuses lists the statuses reachable only on one return method.
// A dropbox return never travels the pickup branch and vice versa.
var methodStatuses = map[Status]ReturnMethod{
	StatusPickupScheduled: MethodPickup,
	StatusPickupCompleted: MethodPickup,
	StatusDropboxReceived: MethodDropbox,
}

// CanTransition reports whether the role may move a return with the given
// current status and method to the target status. The returned error names
// the first rule the transition breaks.
func CanTransition(role Role, method ReturnMethod, current, target Status) error {
	if current.IsTerminal() {
		return fmt.Errorf("return is %s and accepts no further transitions", current)
	}

	if m, restricted := methodStatuses[target]; restricted && m != method {
		return fmt.Errorf("status %s is not reachable for %s returns", target, method)
	}

	targets, ok := transitionTable[role]
	if !ok {
		return fmt.Errorf("role %s may not perform workflow transitions", role)
	}

	allowed, ok := targets[target]
	if !ok {
		return fmt.Errorf("role %s may not set status %s", role, target)
	}

	for _, from := range allowed {
		if from == current {
			return nil
		}
	}
	return fmt.Errorf("cannot move from %s to %s", current, target)
}

// DropboxConfirmTarget is the status a dropbox scan moves an approved return to
const DropboxConfirmTarget = StatusDropboxReceived
