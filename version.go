package paddock

// Version is the library version, stamped into release builds.
var Version = "0.1.0"
