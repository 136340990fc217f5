// Package cache stores derived assets under <ContentRoot>/<CacheDir>/<kind dir>/.
// An entry is created on first request by running the kind's tool into a temp
// file and renaming it into place, so a visible entry is always complete.
// Entries are keyed by (kind, root-relative source path), never invalidated,
// and concurrent misses for the same key share one tool invocation.
package cache
