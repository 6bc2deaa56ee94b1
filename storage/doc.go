// Package storage provides artifact stores for certificate documents.
//
// A certificate records an opaque content identifier (cid) that points at the
// document it attests to, typically a PDF or an image. Institutions upload the
// document through one of the stores below and put the returned cid on the
// certificate:
//
//   - File system storage for local development and testing
//   - S3-compatible storage for cloud deployments
//   - IPFS storage, whose cids resolve through any public gateway
//
// The file and S3 stores derive the cid from the content itself, "sha256-"
// followed by the hex digest. The IPFS store returns the cid reported by the
// node.
//
// # Store URI Format
//
// Stores are specified using URI format:
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Supported URI schemes:
//
//   - file:///var/lib/trustedcert/artifacts/
//   - s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/prefix/?region=us-west-2&endpoint=...
//   - ipfs://127.0.0.1:5001/?timeout=30s
//
// Several stores can be combined with ArtifactStoreFactory.CreateMultiStore, which
// writes to all available stores and reads from the first one holding the cid.
package storage
