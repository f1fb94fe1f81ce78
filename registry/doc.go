// Package registry contains the Bun-backed directory the activity subsystem
// consults: users, workspaces, workspace memberships and global roles.
// Default structs compose go-repository-bun repositories but each resolver
// interface can be replaced by the host application via dependency injection.
package registry
