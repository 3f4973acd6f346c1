// Package container implements allocator-backed containers.
//
// # Hash containers
//
// HashSet and HashMap are open-addressing tables using Robin-Hood probing.
// Each table owns exactly one allocation holding its slot index and its
// data array side by side:
//
//	[ slot{hash, state} x capacity | pad | E x capacity ]
//
// A slot is FREE, OCCUPIED or DELETED. Removal marks the slot DELETED (a
// tombstone) so the probe runs of other keys stay intact; tombstones are
// only purged when the table is rehashed. The table grows by doubling,
// starting at 16 slots, whenever an insert leaves it at 90% load.
//
// # Sorted containers
//
// SortMap keeps entries in a sorted Array and answers lookups by binary
// search. Writes return a SortMapBuilder, an unsorted view that has no
// lookup methods; Sort turns it back into a SortMap. Each transition
// invalidates the previous handle, so reading a map that has pending
// unsorted writes is caught instead of returning wrong answers.
//
// # Element lifecycle
//
// Elements implementing memory.AllocatorAware receive the container's
// allocator when the container constructs them (HashMap.Emplace), and
// elements implementing memory.Destroyer are destroyed on removal, Clear
// and Close.
//
// Containers are not safe for concurrent use. Allocation failure inside a
// container is a fatal assertion.
package container
