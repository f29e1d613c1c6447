// Package domain holds the tracker entities, result types, and error
// taxonomy shared by the release, fields, and search services. Entities are
// plain values: the external store owns them, this layer only references
// them.
package domain
