package permissions

import "github.com/iota-uz/facilities/pkg/authz"

// Role slugs carried by actors. Role assignment itself lives outside this
// module; these constants are the contract the workflow gates check.
const (
	RoleRequester            = "requester"
	RoleOperationsManager    = "operations_manager"
	RoleDepartmentHead       = "department_head"
	RoleMaintenancePersonnel = "maintenance_personnel"
)

// Authorization objects.
const (
	ObjectRequest     = "facilities.request"
	ObjectFulfillment = "facilities.fulfillment"
	ObjectJobWork     = "facilities.job_work"
	ObjectResource    = "facilities.resource"
)

// Actions on the above objects.
const (
	ActionCreate   = "create"
	ActionRead     = "read"
	ActionUpdate   = "update"
	ActionReview   = "review"
	ActionApprove  = "approve"
	ActionHold     = "hold"
	ActionCancel   = "cancel"
	ActionExecute  = "execute"
	ActionVerify   = "verify"
	ActionAssign   = "assign"
	ActionProgress = "progress"
)

// Grants returns the module's casbin policy rows. The rows express
// capabilities only; department scoping (a head deciding for their own
// department's venue, a requester editing their own request) is enforced
// by the services against the loaded records.
func Grants() []authz.Grant {
	return []authz.Grant{
		{Role: RoleRequester, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionCreate},
		{Role: RoleRequester, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionRead},
		{Role: RoleRequester, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionUpdate},
		{Role: RoleRequester, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionCancel},
		{Role: RoleRequester, Domain: authz.WildcardDomain, Object: ObjectJobWork, Action: ActionVerify},

		{Role: RoleOperationsManager, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: authz.WildcardAction},
		{Role: RoleOperationsManager, Domain: authz.WildcardDomain, Object: ObjectFulfillment, Action: authz.WildcardAction},
		{Role: RoleOperationsManager, Domain: authz.WildcardDomain, Object: ObjectJobWork, Action: ActionAssign},
		{Role: RoleOperationsManager, Domain: authz.WildcardDomain, Object: ObjectJobWork, Action: ActionVerify},
		{Role: RoleOperationsManager, Domain: authz.WildcardDomain, Object: ObjectJobWork, Action: ActionReview},
		{Role: RoleOperationsManager, Domain: authz.WildcardDomain, Object: ObjectResource, Action: authz.WildcardAction},

		{Role: RoleDepartmentHead, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionApprove},
		{Role: RoleDepartmentHead, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionReview},
		{Role: RoleDepartmentHead, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionRead},

		{Role: RoleMaintenancePersonnel, Domain: authz.WildcardDomain, Object: ObjectJobWork, Action: ActionProgress},
		{Role: RoleMaintenancePersonnel, Domain: authz.WildcardDomain, Object: ObjectRequest, Action: ActionRead},
	}
}
