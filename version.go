package vellum

// Version is the current release of the vellum engine.
// Overridden at build time via -ldflags "-X github.com/softgrove/vellum.Version=...".
var Version = "0.3.0"
