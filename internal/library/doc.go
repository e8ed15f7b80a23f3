// Package library maps the filesystem onto resource nodes.
//
// Folder containers list directories in natural order, keeping only files
// whose extension is configured. Empty subdirectories can be hidden; hidden
// ones are remembered and re-checked on every staleness check because their
// content, not their mtime, decides visibility. Video files may be followed
// by a transcode folder sibling, zip archives become archive folders and
// m3u playlists become playlist containers. The virtual Root lists the
// shared folders, the optical disc folder and any extra containers.
package library
