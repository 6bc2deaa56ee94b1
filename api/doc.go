/*
Package api defines the wire contract of the certificate registry HTTP API: request
and response bodies, the server configuration and the wallet signature scheme used
to authenticate callers.

# Routes

Public, unauthenticated:

	GET  /api/public/config
	GET  /api/public/status
	GET  /api/public/stats
	GET  /api/public/institutions
	GET  /api/public/institutions/{wallet}/certificates
	GET  /api/public/roles/{wallet}
	GET  /api/public/certificates/{id}
	GET  /api/public/events?after=&limit=

Signed by the administrator:

	POST   /api/admin/institutions
	DELETE /api/admin/institutions/{wallet}
	POST   /api/admin/pause
	POST   /api/admin/unpause

Signed by an institution:

	POST /api/institution/certificates
	POST /api/institution/certificates/{id}/revoke
	POST /api/institution/artifacts

# Authentication

A caller proves control of a wallet by signing the EIP-191 personal message

	METHOD "\n" PATH "\n" TIMESTAMP "\n" NONCE "\n" BODY

and sending the result in the X-Registry-Address, X-Registry-Timestamp,
X-Registry-Nonce and X-Registry-Signature headers. NONCE is a fresh uuid per request.
The server recovers the signer, requires it to match the claimed address, rejects
timestamps outside the configured window and refuses a nonce it has already accepted
from that signer. Any browser wallet can produce the signature
with personal_sign.

# Errors

Failures are returned as ErrorResponse with a stable code. Registry errors use the
codes defined in the interfaces package and map to HTTP statuses as follows:

	401 invalid_signature
	403 unauthorized, not_issuer
	404 not_found, not_registered
	409 already_registered, already_revoked, duplicate_external_id
	423 paused
	400 empty_cid, invalid_address, invalid_certificate_id, invalid_input, bad_request
	413 too_large
	500 internal
*/
package api
