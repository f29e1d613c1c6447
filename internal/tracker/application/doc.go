// Package application defines the ports this service consumes from the
// external issue-tracking store. The store owns all data and serializes
// conflicting writes; implementations surface absence through the typed
// not-found errors in the domain package.
package application
