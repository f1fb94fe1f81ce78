// Package command exposes go-command compatible command handlers that write
// to the activity log. Commands are wired by the service layer and can be
// invoked by any transport.
package command
