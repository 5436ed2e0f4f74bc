// Package textutil provides resource name normalization and metric label
// folding.
//
// Resource names arrive from two directions: file names read from an
// extracted archive and names written into placeholder elements of the
// metadata record. NormalizeName puts both into the same canonical form
// (NFC, trimmed, base name only) so they can be compared byte for byte.
package textutil
