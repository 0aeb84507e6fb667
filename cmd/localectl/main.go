// cmd/localectl/main.go
//
// Operator CLI for the localization tables and the shared snapshot.
//
// Commands
// --------
//
//	localectl snapshot [--rebuild]        print the snapshot as JSON
//	localectl invalidate                  drop the shared cache entry
//	localectl resolve <host> [flags]      show how a request would resolve
//	localectl locale <code>               show a locale and its domains
//	localectl hash-password [--domain h]  bcrypt a password read from stdin
//	localectl verify-password <host>      check a password read from stdin
//
// Configuration is read the same way as the web server (conf/global.yaml,
// ADEPT_ overrides, vault references).  Logs go to stderr so stdout stays
// machine readable.
package main

import (
	"os"
)

func main() {
	a := &app{out: os.Stdout, in: os.Stdin}
	if err := newRootCmd(a).Execute(); err != nil {
		os.Exit(1)
	}
}
