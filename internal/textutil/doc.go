// Package textutil decodes script files from their legacy encodings and
// derives filesystem-safe names for per-script stores.
package textutil
