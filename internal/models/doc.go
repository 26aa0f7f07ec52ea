// Package models defines the persistent entities of ytlinks.
//
//   - [ResolvedLink] : a track link resolved to title/artist and, when found, a video URL
//
// Persistent entities implement [Model], which provides ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
