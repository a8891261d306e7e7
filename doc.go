// Package weavefeed provides a Go client for querying a permaweb-style
// ledger gateway's transaction index by tags and hydrating the matching
// transactions into render-ready posts.
//
// A feed query runs as a pipeline: the gateway's GraphQL index is asked for
// one page of transaction references, every referenced payload is fetched
// with bounded concurrency, and the results are assembled back in index
// order. A fetch failure on one transaction never discards the rest of the
// page — failed items carry their error so a consumer can render a
// placeholder.
//
//	client, _ := weavefeed.New(ctx, weavefeed.WithGateway("https://arweave.net"))
//	defer client.Close()
//
//	page, _ := client.Feed().
//	    Tag("App-Name", "PublicSquare").
//	    Tag("Content-Type", "text/plain").
//	    PageSize(10).
//	    Do(ctx)
//
//	for _, post := range page.Posts {
//	    if post.Err != nil {
//	        // render a placeholder
//	        continue
//	    }
//	    fmt.Println(post.ID, post.Content)
//	}
//
// Pagination is cursor-based: while page.NextCursor is non-empty, pass it to
// After to fetch the following page.
//
//	page, _ = client.Feed().Tag("App-Name", "PublicSquare").After(page.NextCursor).Do(ctx)
//
// Payloads are immutable once committed, so an optional content cache
// (WithCache) can sit in front of the gateway as a pure optimization.
package weavefeed
