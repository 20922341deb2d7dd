// Package services talks to the Spotify-backed service that every API route proxies to.
//
// # Backend Client
//
// [BackendClient] sends requests to a fixed base URL. Each request carries the caller's [Credentials]:
// the sessionId cookie, and when present the JWT cookie plus an Authorization bearer header.
// Outgoing requests share one token-bucket limiter so a burst of page loads cannot flood the backend.
//
// Raw calls ([BackendClient.Get], [BackendClient.Post], [BackendClient.Delete]) return an [APIResponse] that the
// HTTP layer relays status-for-status. Typed calls ([BackendClient.GetPlaylist], [BackendClient.ListFavorites], ...)
// decode into [models] DTOs and convert non-2xx statuses into [apierr.Error] values.
//
// # Playlist IDs
//
// [ExtractPlaylistID] accepts open.spotify.com URLs, spotify: URIs and bare ids.
//
// # Error Handling
//
//   - [shared.ErrAPIRequest] : transport failure, the backend never answered
//   - [apierr.Error] : the backend answered with a non-2xx status
package services
