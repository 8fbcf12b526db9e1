/*
Package ports defines the driven ports (interfaces) of the umlpad core.

These interfaces decouple the orchestration logic from the rendering service,
the persistence medium and the passage of time, so each can be swapped for a
test double or another backend.

# Key Interfaces

  - Renderer / HealthChecker / RenderService: The remote diagram renderer.
  - HistoryBackend: Ordered-list persistence of saved history entries.
  - Clock: Timer source used by every suspension point (debounce, backoff, race, grace).
*/
package ports
