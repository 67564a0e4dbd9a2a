// Package catalog implements the per-image metadata table of spec.md §3-§4.4.
//
// Two concrete catalogs share no common struct, per the design notes in
// spec.md §9: Mutable backs normal and alter mode (pointer-to-record
// entries, ids as the removal key, signatures held in an authoritative
// cache), and ReadOnly backs simple mode (image_info stored inline in a
// dense slice indexed by catalog index, tombstoned rather than removed).
package catalog
