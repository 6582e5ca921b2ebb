// Package catalog is the client for a Solr-backed product catalog.
//
// A Client translates typed catalog documents and abstract queries into engine requests
// and engine results back into typed responses. Bulk loads go through Push, which commits
// in fixed-size batches and reports how far committed data reaches when it stops early.
//
//	c, err := catalog.Open(ctx, catalog.Config{Host: "localhost", Core: "products"})
//	if err != nil { ... }
//	defer c.Close()
//
//	resp, err := c.NewQuery().
//		Filter(catalog.NewField("brand", "Acme", catalog.String)).
//		Facet("in_stock", catalog.NewField("stock", "[1 TO *]", catalog.Int)).
//		Page(0, 20).
//		Response(ctx)
package catalog
