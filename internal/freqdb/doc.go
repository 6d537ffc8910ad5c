// Package freqdb reads the word distribution database: a read-only SQLite
// file with the tables word (value, lemma, pos, count), lemma (value, pos,
// count, arf, is_pname) and optionally source_info.
//
// It answers which lemmas match a searched word, which forms a lemma has
// and which lemmas have a frequency similar to a given one.
package freqdb
