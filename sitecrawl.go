// Package sitecrawl provides a resumable, depth-bounded, single-domain
// breadth-first web crawler. It visits pages starting from a seed URL,
// follows same-domain links, checkpoints its progress so an interrupted run
// can continue, and exports a record of everything it crawled.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, sqlite/, http/).
package sitecrawl
