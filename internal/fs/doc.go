// Package fs defines the virtual filesystem model: locations, file
// metadata, the change taxonomy, the failure taxonomy, and the Resolver
// capability interface with its scheme registry. Resolvers are the storage
// backend boundary; everything above this package is scheme-agnostic.
package fs
