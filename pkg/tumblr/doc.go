// Package tumblr is a client for the Tumblr v1 read API and its media hosts.
//
// Pages are requested from {base}/api/read with type, num and start query
// parameters. Response bodies are checked for UTF-8 validity, stripped of
// bytes outside printable ASCII, and parsed with xmlquery into Post values:
//
//	client := tumblr.NewClient(30*time.Second, nil, log)
//	page, err := client.FetchPage(ctx, tumblr.GetReadURL("", "staff", "photo", 50, 0))
//	for _, post := range page.Posts {
//	    t, _ := post.Type()
//	    ...
//	}
//
// Errors are typed with pkg/errors: a 404 is not_found, a 403 is
// access_denied, an undecodable body is decode and a malformed document is
// parsing.
package tumblr
