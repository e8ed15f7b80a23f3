// Package transcode turns one resolved source node into its playable
// variants.
//
// The Generator always offers the source as-is first, then asks an Oracle
// which engines can play every (audio, subtitle) pairing and derives one
// node per compatible triple. Empty track lists are padded with a nil entry
// so engine-only variants are still offered, and when real subtitles exist
// an explicit media.NoSubtitles choice is added next to them. Variants are
// ordered by engine rank, then audio language, then subtitle language.
//
// Long seekable video variants are followed by a chapter folder whose
// children are split-range duplicates of the variant.
package transcode
