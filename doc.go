// Package iqdb provides a content-based image similarity database.
//
// Images are reduced to a perceptual signature — a truncated Haar wavelet
// decomposition of the image's YIQ planes — and indexed in an inverted
// bucket structure keyed by (channel, sign, magnitude). Queries return the
// catalog's images ranked by similarity to a signature or to another
// catalog entry, without needing an exact or near-exact byte match.
//
// # Quick start
//
//	db := iqdb.NewNormal(iqdb.WithLogger(iqdb.NewTextLogger(slog.LevelInfo)))
//	defer db.Close()
//
//	sigA, _ := iqdb.BuildSignature(1, iqdb.Image{RGB: rgb128, Width: width, Height: height})
//	_ = db.Add(1, iqdb.Image{RGB: rgb128, Width: width, Height: height})
//
//	results, _ := db.Query(sigA, 10, iqdb.Flags{})
//
// # Modes
//
// A database is created or loaded into exactly one of three modes and
// never changes mode afterward: Normal (fully mutable, in-memory catalog
// with a paged scratch file backing bucket contents), Simple (read-only,
// memory-mapped, add is only meant for load-time replay and remove is a
// tombstone), and Alter (bulk maintenance: add/remove/save without query
// support). See NewNormal, OpenSimple and NewAlter.
package iqdb
