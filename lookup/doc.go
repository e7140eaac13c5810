// Package lookup loads named, size-class thresholded tables such as
// predator/prey accessibility or fishery catchability.
//
// Each axis entry is parsed from a label of the form "name" or
// "name < threshold". An entry without a threshold applies to every class.
// Entries sharing a name are expected in increasing threshold order, so the
// first entry whose threshold lies above the queried class value is the one
// that applies:
//
//	      ;hake < 20;hake;anchovy
//	hake  ;0.0     ;0.8 ;0.9
//
// A lookup that resolves to nothing is an error, never a default.
package lookup
