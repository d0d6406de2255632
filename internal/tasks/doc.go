// Package tasks turns a playlist link into a saved archive.
//
// # Core Operations
//
//  1. [LinkValidator] : accepts http(s)://open.<provider>/playlist/<id> links before any network call
//
//  2. [SearchOrchestrator.Search] : resolves a link into a [Snapshot]
//     - Calls the search gateway exactly once
//     - Seeds every track's selection to the resolver's top candidate in the same step
//
//  3. [Snapshot] : an immutable PlaylistResult/SelectionMap pair
//     - Select and Remove return a new snapshot (copy-on-write)
//     - Removing a track drops its match and its selection together
//
//  4. [DownloadOrchestrator.Download] : builds a request in playlist order, fetches the archive, saves it
//     - Tracks whose candidate has no URL are sent with an empty one
//     - An empty playlist fails before the gateway is called
//
//  5. [SearchOrchestrator.BulkExport] : resolves many links on a rate-limited worker pool and writes match tables
//
// # Sessions
//
// [Session] owns the current snapshot for one user. A search result is adopted only if no newer
// search has been adopted; a download whose snapshot was replaced before the archive arrived is discarded.
// [Session.Busy] reports in-flight work and is released on every path.
//
// # Errors
//
// Orchestrators return [*OpError], whose message is safe to show to the user:
//   - structured service failures show the service's reason verbatim
//   - unstructured failures show a generic message with the status code
//   - transport failures show the generic internal error
//
// # Progress Reporting
//
// All operations accept an optional channel of [ProgressUpdate]; sends never block, and a final
// [Done] update is sent whether the operation succeeds or fails.
//
// # Download History
//
// The optional [HistoryRecorder] (repositories.DownloadRepository) records saved archives.
// Recording errors are logged and ignored so they never fail a download.
package tasks
