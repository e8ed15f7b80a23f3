// Package textutil provides the text helpers used when presenting the tree:
// titles derived from file names, natural ordering of entry names, and
// file-name sanitization for user-created lists.
package textutil
