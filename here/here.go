// Package here opens the default embedded shell when it is initialized.
// Import it for its side effect:
//
//	import _ "github.com/atinylittleshell/embedsh/here"
//
// Go runs package initializers before the importing package's own, so the
// shell stops inside this package's init; %stack shows the initialization
// chain that led to it.
package here

import "github.com/atinylittleshell/embedsh"

func init() {
	embedsh.Default().Open(1, -1)
}
