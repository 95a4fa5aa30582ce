// Package http exposes the reservation services over JSON.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a login token. Body: {"username","password"}. Response:
//     {"token","expires_at","principal":{"username","role"}} with the token also
//     surfaced via the `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the token extracted from the Authorization
//     header or session cookie. Returns 204 No Content and clears the cookie.
//   - GET /users, POST /users: administrator account management.
//   - GET /rooms, POST /rooms, PUT /rooms/{id}, DELETE /rooms/{id}: the room catalog.
//     Listing is available to any authenticated principal while mutations require
//     admin privileges.
//   - GET /periods, POST /periods, DELETE /periods/{id}, GET /terms, POST /terms,
//     GET /settings, PUT /settings/{key}, DELETE /settings/{key}: reference data.
//   - GET /reservations, GET /reservations/{id}: the caller's reservations.
//   - POST /reservations, POST /reservations/advanced: single and multi slot creation.
//     Rejections answer 422 with the failing field mapped to its reason, and a
//     collision with a live slot answers 409.
//   - PATCH /reservations/{id}, PATCH /reservations/{id}/slots/{slotID}: owner patches.
//   - PATCH /admin/reservations/{id}, PATCH /admin/reservations/{id}/slots/{slotID}:
//     administrator patches.
//   - GET /healthz: liveness probe.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
