// Package pagination drives offset-based page fetching against the
// Agmarknet resource until the server-declared total is exhausted.
//
// The server's total counts records matching the API-side filters only
// (commodity/state/district); the date range is narrowed client-side after
// each page. Termination therefore compares the raw records processed so
// far against the total, never the records kept after date filtering. A
// page whose records are all discarded by the date filter must not stop the
// run early.
//
// Example usage:
//
//	driver := pagination.NewDriver(mandiClient)
//	result := driver.Run(ctx, query.Filter{State: "Punjab"})
//	fmt.Println(len(result.Records), result.State)
//
// The driver:
//   - Fetches pages sequentially at increasing offsets
//   - Applies the client-side date filter to each page
//   - Stops on an empty page or once the declared total is covered
//   - On a fetch failure, stops and returns everything gathered so far
package pagination
