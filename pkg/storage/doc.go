// Package storage manages the download tree.
//
// Every source gets its own folder under the base directory, created lazily.
// Media is streamed to "<name>.part" and renamed into place when complete, so
// a file at the final path is always a finished download and can be skipped
// on later runs:
//
//	manager, err := storage.NewManager("downloads", 1024)
//	folder, err := manager.TargetFolder("staff")
//	path := filepath.Join(folder, "tumblr_abc_1280.jpg")
//	if !manager.Exists(path) {
//	    _, err = manager.Save(path, body)
//	}
package storage
