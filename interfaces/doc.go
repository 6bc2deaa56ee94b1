// Package interfaces defines the core interfaces and types for the certificate registry.
// It provides the contract between components without implementation details.
//
// # Registry
//
// CertificateRegistry is the authorization and state-transition core: institution
// membership managed by a single administrator, certificate registration with
// external id deduplication, issuer-only revocation, and a global pause switch.
//
// # Journal
//
// Every mutation of the registry is recorded as one Event. EventJournal persists
// the ordered event log and EventPublisher forwards committed events to
// subscribers. Replaying a journal rebuilds the registry state.
//
// # Artifacts
//
// ArtifactStore pins certificate artifacts (scanned images, PDFs) and returns the
// content identifier recorded on the certificate.
//
// # Types
//
//   - CertificateID: 32-byte keccak256 digest identifying a certificate
//   - Institution / InstitutionList: directory entries in insertion order
//   - Certificate / CertificateView: ledger record and its verification snapshot
//   - Roles, Stats, Status: read-only aggregates
package interfaces
