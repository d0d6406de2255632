// Package services relays requests to the external playlist service and translates its responses.
//
// # Gateways
//
// [SearchGateway] sends a playlist link and decodes the resolved tracks into a [models.PlaylistResult].
// [DownloadGateway] sends the chosen sources and returns the packaged [models.Archive] as a stream.
//
// Both are built on [APIService], which owns the base URL and the [http.Client].
// [NewHTTPClient] returns a client authorized with OAuth2 client credentials when they are configured.
//
// # Error Handling
//
// Every failure is returned as a [*ServiceError] whose Kind tells callers how it may be shown:
//   - [KindStructured] : the service answered with {"detail": "..."}; Detail is safe to show verbatim
//   - [KindUnstructured] : non-success status without a readable reason, or an undecodable success body
//   - [KindTransport] : no response was received
//
// [ServiceError] unwraps to the matching sentinel from the shared package
// ([shared.ErrServiceRejected], [shared.ErrServiceFailed], [shared.ErrServiceUnreachable]) and to its cause.
package services
