/*
Package live keeps the registry of open push connections and fans messages
out to them.

# Hub

A Hub is created once and injected wherever broadcasts are triggered:

	hub := live.NewHub(5 * time.Second)
	hub.Connect(sub)
	defer hub.Disconnect(sub)
	delivered := hub.Broadcast(ctx, msg)

Broadcasts never interleave. Each send is bounded by the hub's send
timeout; a subscriber whose send fails is evicted and closed, and the
broadcast carries on with the others. Nothing is retried.

# Conn

Conn is the websocket Subscriber. ReadLoop discards client frames, keeps the
connection alive with pings and returns when the peer goes away or the
context is cancelled.
*/
package live
