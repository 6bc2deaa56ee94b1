// Package main (cmd/registry_client) is a command line client for the TrustedCert registry.
//
// Reads work without a key. Commands that change state sign their requests with
// the wallet key given by --private-key or REGISTRY_PRIVATE_KEY:
//
//	registry-client --private-key=$ADMIN_KEY add-institution --wallet=0x... --name="Acme University"
//	registry-client --private-key=$ACME_KEY upload --file=diploma.pdf
//	registry-client --private-key=$ACME_KEY register --recipient=Alice --title="BSc" --cid=sha256-...
//	registry-client verify 0x<certificate id>
//
// The onchain-verify and onchain-list commands read the deployed contract
// directly through --rpc-addr and --contract-address.
package main
