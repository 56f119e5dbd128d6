// Package client provides a Go SDK for the lattice trust anchor service.
//
// A Client wraps the anchor HTTP API: creating an anchor, reading it back,
// committing a new merkle root, and checking whether a trust edge is included
// in an anchor's current commitment.
//
// # Quick start
//
//	key, _ := client.LoadOwnerKey("owner.key")
//	c, err := client.New("https://lattice.example.com",
//	    client.WithOwnerKey(key),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	anchor, err := c.CreateAnchor(ctx)
//
// WithOwnerKey enables the write operations (CreateAnchor, UpdateRoot,
// PublishEdges): the client mints short-lived owner tokens from the key and
// refreshes them automatically before expiry. Read operations (GetAnchor,
// VerifyEdge) need no key:
//
//	c, _ := client.New("https://lattice.example.com")
//	anchor, err := c.GetAnchor(ctx, owner)
//
// # Publishing a trust graph
//
// PublishEdges builds the merkle tree locally and commits its root in one
// call, returning the tree so callers can hand out inclusion proofs:
//
//	tree, anchor, err := c.PublishEdges(ctx, edges)
//	proof, _ := tree.Proof(2)
//
// # Verifying an edge
//
// VerifyEdge asks the service to replay an inclusion proof against the
// anchor's committed root. A proof that does not verify is reported through
// ErrNotIncluded rather than a transport error:
//
//	err := c.VerifyEdge(ctx, owner, edge, proof, 2)
//	if errors.Is(err, client.ErrNotIncluded) {
//	    // edge is not part of the anchor's current commitment
//	}
//
// # Errors
//
// API-level failures map to sentinel errors (ErrAnchorNotFound,
// ErrAnchorExists, ErrNotOwner, ErrNotIncluded) so callers can branch with
// errors.Is instead of parsing response bodies.
package client
