// Package models defines the entities passed between the backend, the API routes and the views.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs) mirrored from the Spotify-backed service and passed through unmodified:
//   - [Playlist], [Track], [Album], [Artist], [AudioFeatures] : Spotify objects, using Spotify's field names
//   - [FavoritePlaylist] : a playlist the user bookmarked in the backend
//   - [User] : the profile of the logged-in user
//
// 2. Persistent Entities owned by this application:
//   - [Session] : a browser session issued through the sessionId cookie
//
// Persistent entities implement the [Model] interface; the [Repository] interface defines CRUD access to them.
package models
