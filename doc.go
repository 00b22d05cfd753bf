// Package embedsh opens an interactive shell at any point of a running Go
// program.
//
// A call to Sh blocks the calling goroutine, prints where it stopped and
// reads operator input until Ctrl-D:
//
//	func handle(u *User) {
//		embedsh.Sh(embedsh.V("u", u))
//		...
//	}
//
// Input is evaluated as Lua with the bound values in scope. Lines starting
// with % are commands (%help lists them) and lines starting with ! run a
// shell command. %kill_embedded turns every later breakpoint into a no-op.
//
// Deferring Recover opens the shell with a traceback when a panic
// propagates, then lets the panic continue:
//
//	defer embedsh.Recover()
//
// Importing the here package opens the default shell while packages
// initialize:
//
//	import _ "github.com/atinylittleshell/embedsh/here"
package embedsh
