package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	errs "tumblrripper/pkg/errors"
	"tumblrripper/pkg/logger"
	"tumblrripper/pkg/tumblr"
)

// Writer is the part of the storage manager the dumper writes through
type Writer interface {
	BaseDir() string
	WriteFile(name string, data []byte) error
}

// Dumper writes optional copies of what the read API returned: each
// sanitised page as XML and each post as JSON, both under the base directory.
type Dumper struct {
	out       Writer
	responses bool
	posts     bool
	logger    logger.Logger
}

// NewDumper creates a dumper. Disabled dumps are no-ops.
func NewDumper(out Writer, dumpResponses, dumpPosts bool, log logger.Logger) *Dumper {
	return &Dumper{
		out:       out,
		responses: dumpResponses,
		posts:     dumpPosts,
		logger:    logger.OrDefault(log),
	}
}

// ResponseFileName names the dump of one page
func ResponseFileName(source, mediaType string, num, start int) string {
	return fmt.Sprintf("%s_%s_%d_%d.response.xml", source, mediaType, num, start)
}

// PostFileName names the dump of one post
func PostFileName(source, postID string) string {
	return fmt.Sprintf("%s_post_id_%s.post.json", source, postID)
}

// Enabled reports whether any dump is switched on
func (d *Dumper) Enabled() bool {
	return d != nil && (d.responses || d.posts)
}

// DumpPage writes the sanitised page document
func (d *Dumper) DumpPage(source, mediaType string, num, start int, raw []byte) error {
	if d == nil || !d.responses {
		return nil
	}
	name := ResponseFileName(source, mediaType, num, start)
	if err := d.out.WriteFile(name, raw); err != nil {
		return err
	}
	d.logger.DebugWithFields("dumped page", map[string]interface{}{"file": name})
	return nil
}

// DumpPost writes one post as JSON
func (d *Dumper) DumpPost(source string, post *tumblr.Post) error {
	if d == nil || !d.posts {
		return nil
	}

	data, err := json.Marshal(post)
	if err != nil {
		return errs.Wrap(errs.ErrorTypeFilesystem, err, "failed to marshal post")
	}

	name := PostFileName(source, post.ID())
	if err := d.out.WriteFile(name, data); err != nil {
		return err
	}
	d.logger.DebugWithFields("dumped post", map[string]interface{}{"file": name})
	return nil
}

// LoadPost reads a post dump back into its generic map form
func LoadPost(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read post dump: %w", err)
	}

	var post map[string]interface{}
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("failed to unmarshal post dump: %w", err)
	}

	return post, nil
}

// CleanDumps removes every page and post dump from dir
func CleanDumps(dir string) (int, error) {
	removed := 0
	for _, pattern := range []string{"*.response.xml", "*.post.json"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return removed, err
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil {
				return removed, fmt.Errorf("failed to remove dump %s: %w", m, err)
			}
			removed++
		}
	}
	return removed, nil
}
