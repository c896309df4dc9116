/*
Package ports defines the driven ports (interfaces) for the vellum engine.

These interfaces decouple the session core from external implementations,
allowing the engine to work with different storage backends and generation
capabilities.

# Key Interfaces

  - StateStore: Persists and loads the WorldState for a namespace.
  - ChapterStore: Owns the append-only chapter log of a namespace.
  - LinkStore: Holds the optional cross-reference index written by link refresh.
  - Generator: The external text-generation capability behind one opaque call.
*/
package ports
