// Package repositories provides the SQLite persistence layer.
//
// [LinkRepository] implements models.Repository[*models.ResolvedLink].
// [LinkCacheAdapter] wraps it as the conversion engine's link cache.
package repositories
