// Package tile implements the dashboard tiles.
//
// A tile is a state machine driven by actions from the bus:
//
//	idle -> busy (RequestQueryResponse) -> ready | error
//
// Each tile runs in its own goroutine (Model.Run) and is the only writer
// of its state. Backend calls run in separate goroutines and hand their
// results back to the tile goroutine, which applies them and publishes
// TileDataLoaded or PartialTileDataLoaded. Readers only ever see copies
// of the state (Snapshot).
//
// A tile may wait for another tile (usually a concordance) and reuse its
// result. Tiles loading several chunks (subcorpora, words) merge and
// publish every chunk as soon as it arrives and stay busy until all
// chunks settled. Failed chunks do not fail their siblings.
//
// Every query carries a monotonic id. Results and dependency data
// belonging to an older query are dropped.
package tile
