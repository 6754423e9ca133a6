// Package services talks to hosted backends over HTTP.
//
// # Realtime Store
//
// [RealtimeStore] keeps saved lists in a hosted realtime database (Firebase-style REST):
//
//   - POST /history.json pushes an entry; the response is {"name": "<generated key>"}
//   - GET /history.json?orderBy="groupId"&equalTo="<group>" lists a group's entries as a key → entry object
//   - DELETE /history/<key>.json removes one entry
//
// Requests are throttled by a token-bucket [rate.Limiter] (realtime.rate_limit requests per second) and bounded by
// the client timeout (realtime.timeout_seconds). Nothing is retried; failures surface wrapped in
// [shared.ErrSaveFailed], [shared.ErrFetchFailed] or [shared.ErrDeleteFailed].
//
// The backend offers no conditional writes, so two devices saving at the same time both succeed and the recency
// check of one cannot see the other's save.
package services
