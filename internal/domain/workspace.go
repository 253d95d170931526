package domain

type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name,omitempty"`
	Email    string   `json:"email"`
	GroupIDs []string `json:"groupIds,omitempty"`
}

type Organization struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Permissions Permissions `json:"permissions"`
}

type Project struct {
	ID          string      `json:"id"`
	Code        string      `json:"code"`
	Permissions Permissions `json:"permissions"`
}

// Workspace identifies the organization and project the engine is bound to.
type Workspace struct {
	Organization *Organization `json:"organization"`
	Project      *Project      `json:"project"`
}

// ConstraintData is the context needed to render constraint values.
type ConstraintData struct {
	Users    []User `json:"users,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}
