/*
Package ports defines the driven ports (interfaces) of the triage engine.

These interfaces decouple the core state machine from the host it runs in,
allowing the same engine to drive a terminal, an HTTP API or an MCP agent, and
to persist sessions in memory, on disk or in Redis.

# Key Interfaces

  - HostChannel: The append-only message log the engine posts to ("post" / "read last").
  - CompletionSignal: The fire-once notification raised when the flow ends.
  - StateStore: Persists and loads session State.
  - MessageLog: Persists the messages posted to each session.
  - Submitter: Receives the flat answer snapshot after completion.
  - DistributedLocker: Coordinates concurrent access to a session across replicas.
  - CatalogLoader: Provides the question catalog (e.g., from YAML or a Loam repository).
*/
package ports
