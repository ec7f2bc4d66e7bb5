// Package contracts pins the API contract version served by this module.
package contracts

// Version is the current contract version.
const Version = "v1"

// AppVersion is the application release version, overridable at build time
// with -ldflags "-X wellwq/pkg/contracts.AppVersion=...".
var AppVersion = "0.1.0"
