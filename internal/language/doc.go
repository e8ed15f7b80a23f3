// Package language normalizes the language codes found on audio and subtitle
// tracks so they can be displayed, compared, and sorted consistently.
//
// Tracks carry ISO 639-2 codes internally. Input may be ISO 639-1, either
// ISO 639-2 variant (bibliographic or terminologic), an English word, or a
// BCP 47 tag such as "pt-BR".
package language
