/*
Package domain contains the core models shared by every umlpad component.

It defines the availability signal produced by the connectivity supervisor, the
render request/outcome pair handled by the coordinator, the viewport state of the
rendered image and the history entries kept by the history store. The package
is kept free of I/O so it can be imported by adapters and the core alike.

# Key Entities

  - Availability: Tri-state signal (checking, online, offline) about the render service.
  - RenderRequest / RenderOutcome: A single render attempt and how it resolved.
  - ErrorKind: Classification of a failed attempt (timeout, network, rejected...).
  - ViewportState: Zoom percentage and pan offset applied to the displayed image.
  - HistoryEntry: A saved diagram source with derived title and preview.
*/
package domain
