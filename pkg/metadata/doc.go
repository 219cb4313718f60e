// Package metadata writes optional dumps of read API responses.
//
// With output.dump_responses set, each sanitised page is saved as
// "<source>_<type>_<num>_<start>.response.xml". With output.dump_posts set,
// each post is saved as "<source>_post_id_<id>.post.json" in the generic
// attribute/text/children map shape, which suits tools like jq.
package metadata
