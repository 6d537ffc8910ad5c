// Package noske implements the data APIs on top of the NoSketch Engine
// (Bonito) web API.
//
// Unlike KonText, NoSke identifies a concordance by the list of its q
// operations, so a concordance identifier is passed around as the encoded
// form of that list.
package noske
