// Package resolver turns a post into the URLs of the media it carries.
//
// Photo posts resolve to their first photo-url. Video posts run the second
// video-player fragment through an ordered chain of URLExtractor rules, HD
// first. Regular posts resolve to the best srcset candidate of every image in
// the body. Missing fields produce a *ResolutionError.
package resolver
