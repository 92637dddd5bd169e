// Package domain holds the core model types, value objects, and the
// repository interfaces the rest of the application is wired through.
// It has no dependencies on storage or transport.
package domain
