/*
Package clients provides a client library for the certificate registry HTTP API.

RegistryClient covers every public and authenticated endpoint. Authenticated
requests are signed with the caller's wallet key using the scheme implemented in
the api package, so the same key that holds a role on the registry proves the
caller's identity to the server.

Error responses are returned as *APIError, which unwraps to the matching registry
sentinel:

	client := clients.NewRegistryClient("http://localhost:8080", key)
	id, err := client.RegisterCertificate(ctx, interfaces.CertificateRequest{
	    RecipientName: "Alice",
	    Title:         "BSc",
	    CID:           cid,
	})
	if errors.Is(err, interfaces.ErrPaused) {
	    // retry later
	}
*/
package clients
