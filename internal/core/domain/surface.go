package domain

// Surface is a role-scoped page of the dashboard.
type Surface string

const (
	SurfaceNone         Surface = ""
	SurfaceLogin        Surface = "/login"
	SurfaceDashboard    Surface = "/dashboard"
	SurfaceTeamAdmin    Surface = "/teamadmin"
	SurfaceTasks        Surface = "/tasks"
	SurfaceUnauthorized Surface = "/unauthorized"
)
