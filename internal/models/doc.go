// Package models defines the provider-independent entities the client shows and acts on.
//
// Catalog entities:
//   - [Track], [Album], [Artist], [Playlist] : library and catalog items
//   - [Device] : a playback target registered to the account
//   - [Playback] : the remote player's reported state
//
// Addressing:
//   - [EntityRef] : (kind, id) pair keying the saved/followed ledger
//   - [Page] : one page of a paginated listing, addressed by a page token
package models
