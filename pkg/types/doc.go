// Package types defines the entity types, status constants, and standard
// errors for the driftpress content mirror. The tool server and the desktop
// application's sync process share these shapes; the mirror database itself
// is owned by the sync process.
package types
