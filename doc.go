// Package ytclone is a video catalog with infinite-scroll feeds.
//
// Overview
//
// The heart of the module is the Incremental Loader (package loader). It
// watches a sentinel target placed after the last item of a list and calls
// a fetch-more function each time the sentinel becomes visible, tracking
// loading, error and exhaustion state. Visibility comes from a
// viewport.Source:
//
//   - viewport.Scroll computes intersections geometrically for a scrolling
//     root, the way a browser intersection observer does.
//   - viewport.Manual is driven by hand, by tests and by remote clients
//     that report visibility over a websocket.
//
// Package feed owns the list. A feed.Feed pages through a feed.Provider with
// opaque continuation cursors, and a feed.Session wires a Feed to a Loader.
//
// Quick Start
//
// Scroll a generated home feed:
//
//	gen := catalog.NewGenerator(1)
//	f, err := feed.New[catalog.Video](catalog.NewHomeFeed(gen))
//	if err != nil {
//		log.Fatal(err)
//	}
//	scroll := viewport.NewScroll(1280, 720)
//	s, err := feed.NewSession(f, scroll, "sentinel", loader.WithThreshold(0.1))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer s.Close()
//	scroll.SetBounds("sentinel", viewport.Rect{Y: 0, Width: 1280, Height: 1})
//	s.Mount()
//
// Commands
//
// The ytclone command (cli/) serves the catalog over HTTP (package server),
// prints feed pages, and browses feeds in a terminal grid (package tui),
// either generated locally or fetched through package client.
//
// Configuration
//
// Settings are loaded by package config from, highest priority first:
//
//  1. Environment variables (YTCLONE_<SECTION>_<KEY>)
//  2. Config file (--config or $XDG_CONFIG_HOME/ytclone/config.yaml)
//  3. Default values
//
// Error Handling
//
// Sentinel errors are re-exported here for errors.Is checks:
//
//	if errors.Is(err, ytclone.ErrInvalidCursor) {
//		// restart the feed from the first page
//	}
package ytclone
