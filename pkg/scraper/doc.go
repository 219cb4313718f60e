// Package scraper crawls the Tumblr read API and schedules media downloads.
//
// A Crawler walks one (source, media type) pair page by page:
//
//	GET {base}/api/read?num={num}&start={start}&type={type}
//
// A 404 means the source does not exist and ends the pass. Pages that fail
// to decode, or fail in transport, are fetched again at the same start
// index. Any other failure aborts the pass. Media posts accepted by the
// PostFilter become MediaJobs, one per photo for photosets, and the start
// index advances by num after each good page. An empty page ends the pass.
//
// The Scheduler runs the crawler over every source and media type in order,
// joining the shared job queue after each pass so that all photos of a
// source are on disk before its videos are crawled:
//
//	sched, err := scraper.New(cfg, log)
//	if err != nil {
//	    return err
//	}
//	summary, err := sched.Run(ctx, []string{"staff", "engineering"})
package scraper
