package config

// Version is the TALON binary version.
// Set at build time via: -ldflags "-X github.com/dewyman/TALON/internal/config.Version=<tag>"
var Version = "dev"
