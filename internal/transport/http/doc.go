// Package http is the HTTP presentation adapter over the analytics core.
// It owns dataset lifecycle (upload, default dataset, fingerprint
// memoization) and translates query requests into core calls; the core
// itself stays a set of pure in-process functions.
package http
