package domain

// Repository represents a GitHub repository of the audited organization
type Repository struct {
	Org  string
	Name string
}

// Member represents a GitHub organization member. Name and Email come from the
// user profile and are empty when the profile does not expose them.
type Member struct {
	Login string
	Name  string
	Email string
}

// Team represents a GitHub organization team
type Team struct {
	ID   int64
	Name string
}

// Permissions is the access a collaborator holds on a repository
type Permissions struct {
	Admin bool
	Push  bool
	Pull  bool
}

// Collaborator represents a user with access to a repository
type Collaborator struct {
	Login       string
	Permissions Permissions
}
