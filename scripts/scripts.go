// Package scripts bundles the Risor graph scripts shipped with the codemap
// CLI. Each script reads the graph through the runtime's host functions
// and evaluates to its result.
package scripts

import "embed"

// FS holds the bundled scripts, addressed by file name.
//
//go:embed *.risor
var FS embed.FS
