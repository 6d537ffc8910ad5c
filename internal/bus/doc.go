// Package bus implements the action bus tiles use to talk to each other.
//
// Every published Action is delivered to each Subscription whose
// predicate accepts it, in publish order. Subscriptions buffer without
// limit so a slow consumer never blocks a publisher. A tile depending on
// another tile's result subscribes to the other tile's TileDataLoaded
// action instead of referring to the tile directly.
package bus
