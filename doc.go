// Package auction implements a timed-auction lifecycle engine: creation,
// bidding, and a periodic sweep that closes expired auctions and queues one
// closure notification per transition.
//
// Lifecycle:
//   - Auctions carry an AuctionStatus persisted via Bun. An auction is created
//     OPEN with an ending_at stamped a fixed offset after creation; it leaves
//     OPEN exactly once, to CLOSED (sweep) or CANCELLED, and never comes back.
//   - AuctionStateMachine centralizes the transition graph, hooks, and
//     persistence. It refuses illegal moves before touching storage.
//
// Conditional writes:
//   - Every mutation in the Auctions repository is a single conditional
//     statement keyed on the previously stored value (RaiseBid, CloseIfOpen).
//     That is the only synchronization point in the package: concurrent
//     bidders and overlapping sweep runs coordinate through the store, not
//     through in-process locks.
//
// Notifications:
//   - The sweep's obligation ends at a successful enqueue. NATSNotifier
//     publishes the closure message and DeliveryConsumer drains the subject
//     later, handing each message to a Mailer. A delivery failure never
//     reverts a committed CLOSED transition.
package auction
