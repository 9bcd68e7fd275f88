// Package credentials persists OAuth tokens and in-flight PKCE transaction state.
//
// Values live behind the [Repository] interface under a fixed set of [Key] names:
//   - [MemoryRepository] : process lifetime only, used by tests and the memory backend
//   - [SQLiteRepository] : the credentials table of the application database
//   - [FileRepository] : a TOML document with owner-only permissions
//
// [Store] layers the token semantics on top: expiry is always computed here from the store's clock,
// a refresh response without a refresh token keeps the previous one, and [Store.IsExpired] fails closed.
package credentials
