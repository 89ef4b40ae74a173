package rbac

const (
	RoleLearner = "learner"
	RoleAdmin   = "admin"
)

// RolePermissions is the default policy.
var RolePermissions = map[string][]string{
	RoleLearner: {
		"test:view",
		"test:take",
		"result:view-own",
		"material:view",
	},
	RoleAdmin: {
		"*",
	},
}
