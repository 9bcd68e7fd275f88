// Package services talks to the Yoto HTTP APIs.
//
// # Token Endpoint
//
// [YotoService] implements the OAuth public-client calls used by the auth manager:
// [YotoService.AuthCodeURL], [YotoService.ExchangeCode] and [YotoService.RefreshToken].
// All three are built on [oauth2.Config] with [oauth2.AuthStyleInParams], so client_id travels in the form body and no secret is sent.
//
// # Playlist API
//
// [YotoService.Cards], [YotoService.Card] and [YotoService.UserProfile] call the REST API with a bearer token
// pulled from a [TokenProvider] on every request. Requests are throttled client side with a [rate.Limiter].
// [YotoService.Get] returns the raw response for ad-hoc inspection.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : no token provider, or the API answered 401
//   - [shared.ErrPlaylistNotFound] : the API answered 404 for a card
//   - [shared.ErrAPIRequest] : any other non-2xx status or transport failure
//   - [shared.ErrAuthFailed] : the token endpoint rejected a code exchange; the response body is kept in the message
//   - [shared.ErrRefreshFailed] : the token endpoint rejected a refresh
package services
