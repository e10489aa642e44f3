// Package cranfield reads the Cranfield test collection format.
//
// A Cranfield file is a sequence of records, each introduced by a ".I <id>"
// line and split into sections by ".T" (title), ".A" (authors), ".B"
// (bibliography) and ".W" (body) marker lines:
//
//	.I 1
//	.T
//	experimental investigation of the aerodynamics of a
//	wing in a slipstream .
//	.A
//	brenckman,m.
//	.B
//	j. ae. scs. 25, 1958, 324.
//	.W
//	experimental investigation of the aerodynamics of a
//	...
//
// Document files use all four sections. Query files only carry a body; any
// title, author or bibliography section found there is skipped.
//
// Readers are plain iterators: Next returns one record at a time and io.EOF
// once the input is exhausted. A record is handed out only when the next
// ".I" line or the end of input is reached.
package cranfield
