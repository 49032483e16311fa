package version

// Version is the current version of tabload.
// Can be overridden at build time with -ldflags "-X ...version.Version=..."
var Version = "0.1.0"

// Name is the application name.
const Name = "tabload"

// Description is a short description of the application.
const Description = "Schema inference and loading for delimited files"
