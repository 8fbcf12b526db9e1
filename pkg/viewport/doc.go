/*
Package viewport implements the zoom/pan transform applied to a rendered diagram.

The Engine is pure state and arithmetic: it never performs I/O. Zoom is an
integer percentage clamped to [domain.MinZoom, domain.MaxZoom]; pan is an offset
expressed in pre-scale pixels so dragging moves at the same visual speed at any
zoom. The rendering transform is scale(zoom/100) applied after translate(pan),
with the origin at the image center.
*/
package viewport
