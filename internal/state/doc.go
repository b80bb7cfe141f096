// Package state holds the registry of managed files and profiles and persists it.
//
// The registry is the single source of truth for which files profswap manages,
// which snapshot holds each file's original content, which profiles carry a
// variant of each file, and which profiles are active. It is persisted as a
// TOML file written atomically (temp file + rename).
//
// Key concepts:
//   - Registry: the in-memory value loaded once per invocation and saved back
//   - ManagedFile: a live path plus its original snapshot and per-profile variants
//   - Profile: a named activation flag; membership is implied by variants
//   - StateStore: interface for loading and saving the registry
package state
