// Package slicer partitions solids into horizontal slabs along the Y axis,
// groups the fragments produced by cutting into one unit per slab, and
// schedules a sequential animation that plays the slabs bottom to top.
//
// Geometry editing and keyframe storage are collaborators reached through
// the Geometry and Animator interfaces; pkg/scene and pkg/anim provide the
// in-process implementations.
package slicer
