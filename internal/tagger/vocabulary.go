package tagger

import "strings"

// Vocabulary is the ordered set of known tag names.
//
// It is a value: Add returns an updated copy and never mutates the receiver,
// so the vocabulary a batch was built with stays stable while later batches
// extend their own copy.
type Vocabulary struct {
	names []string
	index map[string]struct{}
}

// NewVocabulary builds a vocabulary from existing tag names, keeping
// first-seen order and dropping blanks and repeats.
func NewVocabulary(names []string) Vocabulary {
	var v Vocabulary
	v, _ = v.Add(names...)
	return v
}

// Add returns the vocabulary extended with any names not yet present, along
// with the names that were actually new. Names are trimmed; nothing else is
// normalised.
func (v Vocabulary) Add(names ...string) (Vocabulary, []string) {
	var added []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || v.Contains(name) {
			continue
		}
		if containsString(added, name) {
			continue
		}
		added = append(added, name)
	}
	if len(added) == 0 {
		return v, nil
	}

	next := Vocabulary{
		names: make([]string, 0, len(v.names)+len(added)),
		index: make(map[string]struct{}, len(v.names)+len(added)),
	}
	next.names = append(next.names, v.names...)
	next.names = append(next.names, added...)
	for _, name := range next.names {
		next.index[name] = struct{}{}
	}
	return next, added
}

// Contains reports whether name (as given) is in the vocabulary.
func (v Vocabulary) Contains(name string) bool {
	_, ok := v.index[name]
	return ok
}

// Names returns a copy of the tag names in first-seen order.
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Len returns the number of names.
func (v Vocabulary) Len() int {
	return len(v.names)
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
