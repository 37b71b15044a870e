// Package script parses Musica dialogue scripts into a concrete syntax tree.
//
// The grammar is line oriented. Every non-blank line becomes one top-level
// child of the Musica root: comments, include directives, dialogue messages,
// or verbatim non-message lines. Message lines are further split into an
// optional number, speaker name, tachie reference, and quoted or unquoted
// content. The root always ends with an EOI node.
//
// Nodes carry byte spans into Tree.Source; callers slice text through
// Tree.Text while the tree is alive.
package script
