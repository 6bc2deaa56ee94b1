/*
Package httpserver serves the TrustedCert registry over HTTP.

The Handler translates requests into calls on an interfaces.CertificateRegistry.
It authenticates wallets and leaves every authorization decision to the registry,
so the HTTP layer and the registry cannot disagree about who may do what.
The Server adds health endpoints, access logging, request ids, CORS and pprof
on top of the handler's routes.

# Endpoints

Public:

  - GET /api/public/config - contract address, chain id and artifact gateway for front ends
  - GET /api/public/status - admin wallet, pause state and last event sequence
  - GET /api/public/stats - institution and certificate counters
  - GET /api/public/institutions - directory with parallel names, descriptions and wallets
  - GET /api/public/institutions/{wallet}/certificates - certificates issued by a wallet
  - GET /api/public/roles/{wallet} - roles held by a wallet
  - GET /api/public/certificates/{id} - verify a certificate
  - GET /api/public/events?after=&limit= - page through the audit log

Signed by the admin wallet:

  - POST /api/admin/institutions
  - DELETE /api/admin/institutions/{wallet}
  - POST /api/admin/pause
  - POST /api/admin/unpause

Signed by an institution wallet:

  - POST /api/institution/certificates
  - POST /api/institution/certificates/{id}/revoke
  - POST /api/institution/artifacts

Operational:

  - GET /livez, /readyz - liveness and readiness
  - GET /drain, /undrain - toggle readiness ahead of a shutdown
  - /debug/pprof/* - when pprof is enabled

See package api for the signature headers and the error body.
*/
package httpserver
