// Package extractors converts raw uploaded files into sequences of
// normalised text records with positional metadata. Each format lives
// in its own subpackage; the registry selects by MIME type.
package extractors
