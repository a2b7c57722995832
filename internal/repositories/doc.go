// Package repositories implements SQLite persistence for state that outlives a session.
//
// Key Implementations:
//   - [TokenRepository] : OAuth2 credentials per provider, kept current across refreshes
//   - [DeviceRepository] : the playback device the user last transferred to
//
// Tables are created by the embedded migrations in [shared.RunMigrations]; rows are keyed by
// provider name so a second streaming service can share the database.
package repositories
