// Package services defines the collaborator contracts the matching core
// consumes and implements them for the catalog proxy and snapshot files.
//
// # Contracts
//
//   - [CatalogSource] : supplies an ordered sequence of already-parsed
//     track records plus playlist membership snapshots
//   - [SearchService] : returns candidate remote tracks for a probe track,
//     used when building playlists from missing tracks
//   - The mutation surface (like/unlike/add/remove) is declared by the
//     cleanup package; [ProxyClient] satisfies it structurally
//
// # Proxy Implementation
//
// [ProxyClient] communicates with a proxy server wrapping ytmusicapi.
// Requests are authorized with a static bearer token via [oauth2].
// HTTP 429 maps to [shared.ErrRateLimited] so the executor retries with
// backoff; other non-2xx responses map to [shared.ErrRemoteActionFailed].
//
// # Snapshot Files
//
// [FileSource] loads libraries and playlist snapshots from JSON files in
// the common record shape. Per-service file format parsing happens
// upstream; this package never parses service-native formats.
package services
