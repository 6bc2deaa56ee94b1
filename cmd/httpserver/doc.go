// Package main (cmd/httpserver) runs the TrustedCert registry server.
//
// On start the server opens the event journal, replays it to rebuild the registry
// and serves the HTTP API described in package httpserver. Every accepted change is
// appended to the journal and, when --nats-url is set, forwarded to NATS.
//
// Certificate documents uploaded by institutions are written to every store given
// with --artifacts. When --contract-address is set the server checks that the
// configured admin also administers the deployed contract and serves the address
// to front ends through /api/public/config.
//
// Example usage:
//
//	registry-server --admin-address=0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266 \
//	    --journal=leveldb:///var/lib/trustedcert/journal \
//	    --artifacts=file:///var/lib/trustedcert/artifacts \
//	    --artifacts=ipfs://127.0.0.1:5001 \
//	    --nats-url=nats://127.0.0.1:4222 \
//	    --cors-origin=https://trustedcert.example
package main
