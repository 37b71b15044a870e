// Package segment defines the dialogue segments extracted from Musica scripts
// and the partial builders merged while walking a syntax tree.
//
// A Message carries a numbered line of dialogue with optional speaker name and
// tachie (portrait) reference; a NonMessage carries any other script text
// verbatim. Builders hold optional fields and merge field-wise: merging two
// builders that both set a field is a conflict, merging builders of different
// variants is a type mismatch.
package segment
