package types

// Version is the canonical project version.
// The CLI, the renderer-engine wire protocol, and downstream consumers of the
// metadata output shape share this version (lockstep versioning).
const Version = "0.2.0"
