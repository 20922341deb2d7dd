// Package repositories implements SQLite persistence for browser sessions and the JWTs issued to them.
//
// Key Implementations:
//   - [SessionRepository] : [models.Repository] for [models.Session], keyed by the sessionId cookie
//   - [TokenRepository] : key-value store mapping a session id to the backend JWT, held as an [oauth2.Token]
//
// Both are safe for concurrent use through [sql.DB]. Expired tokens are filtered on read and removed by
// [TokenRepository.PurgeExpired].
package repositories
