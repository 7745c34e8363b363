package domain

// UserHours is the total reportable hours of one user.
type UserHours struct {
	UserID     UserID
	Name       string
	TotalHours float64
}

// ProjectHours is the total reportable hours booked against one project.
type ProjectHours struct {
	ProjectID   ProjectID
	ProjectName string
	TotalHours  float64
}

// UserProjectHours is one user's total hours on one project.
type UserProjectHours struct {
	UserID      UserID
	ProjectID   ProjectID
	ProjectName string
	TotalHours  float64
}

// StatusHours is the total hours of headers in one status.
type StatusHours struct {
	Status     TimesheetStatus
	TotalHours float64
}
