// Package registry implements the certificate registry core and a client for the
// on-chain CertificateRegistry contract.
//
// Registry owns four pieces of state: the role store (one administrator and a set
// of institution wallets), the institution directory, the certificate ledger and
// the pause switch. All calls are serialized by a single lock. A mutating call
// validates every precondition, appends one event to the journal and only then
// applies the event to memory, through the same code path New uses to replay an
// existing journal. The journal is therefore the source of truth: a registry built
// from the same events always ends up in the same state.
//
// # Usage Example
//
//	j := journal.NewMemoryJournal()
//	reg, err := registry.New(ctx, admin, j, registry.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//
//	err = reg.AddInstitution(ctx, admin, mit, "MIT", "Massachusetts Institute of Technology")
//	id, err := reg.RegisterCertificate(ctx, mit, interfaces.CertificateRequest{
//	    RecipientName: "Alice",
//	    Title:         "BSc",
//	    CID:           "Qm...",
//	})
//	view, err := reg.VerifyCertificate(ctx, id)
//
// # On-chain client
//
// OnchainRegistryClient talks to a deployed CertificateRegistry contract through
// go-ethereum bindings. Read-only operations can be used immediately; state-modifying
// operations require SetTransactOpts. Contract reverts are translated into the same
// sentinel errors the in-process Registry returns, see MapRevertError.
package registry
