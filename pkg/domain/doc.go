/*
Package domain contains the core domain models for the vellum session engine.

It defines the fundamental entities of a playthrough: the WorldState, the
ChapterRef, and the Task lifecycle. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - WorldState: The serialized facts, choice history, and metadata of a session.
  - ChapterRef: A reference to one immutable, sequence-numbered chapter document.
  - Task / TaskStatus: One queued generation request and its tracked lifecycle.
*/
package domain
